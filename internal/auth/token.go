package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
	"github.com/gestaozabele/painel-conteudo/internal/session"
)

// ErrNoToken é retornado quando não há token utilizável na sessão.
var ErrNoToken = fmt.Errorf("token ausente: %w", apperr.ErrUnauthorized)

// TokenProvider resolve o bearer token do chamador atual.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// SessionTokenProvider lê o token da sessão carregada no contexto.
type SessionTokenProvider struct {
	now func() time.Time
}

// NewSessionTokenProvider cria provider baseado na sessão do painel.
func NewSessionTokenProvider() *SessionTokenProvider {
	return &SessionTokenProvider{now: time.Now}
}

// Token devolve o token apenas se a sessão e o próprio JWT ainda forem válidos.
func (p *SessionTokenProvider) Token(ctx context.Context) (string, error) {
	sess, ok := session.FromContext(ctx)
	if !ok || strings.TrimSpace(sess.AccessToken) == "" {
		return "", ErrNoToken
	}

	now := p.now()
	if sess.Expired(now) {
		return "", ErrNoToken
	}
	if exp, ok := TokenExpiry(sess.AccessToken); ok && !now.Before(exp) {
		return "", ErrNoToken
	}

	return sess.AccessToken, nil
}

// StaticTokenProvider devolve sempre o mesmo token; usado pela ferramenta de linha de comando.
type StaticTokenProvider string

// Token implementa TokenProvider.
func (p StaticTokenProvider) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(p))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// BearerToken extrai o token de um header Authorization "Bearer <token>".
// JWTs já vencidos são recusados localmente, sem chamada à origem.
func BearerToken(header string, now time.Time) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	if exp, ok := TokenExpiry(token); ok && !now.Before(exp) {
		return "", ErrNoToken
	}
	return token, nil
}

// TokenExpiry lê o claim exp sem verificar assinatura; quem valida o token é o backend.
// Tokens opacos (não-JWT) retornam ok=false.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
