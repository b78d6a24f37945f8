package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound é retornado quando a sessão não existe ou expirou.
var ErrNotFound = errors.New("sessão não encontrada")

// Session guarda o token do backend associado ao cookie do painel.
type Session struct {
	ID          string          `json:"id"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// Expired informa se a sessão já passou da validade.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persiste sessões do painel.
type Store interface {
	Save(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

type contextKey struct{}

// WithSession injeta a sessão no contexto.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext recupera a sessão carregada pelo middleware.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
