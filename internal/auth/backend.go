package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
)

// ErrInvalidCredentials indica login recusado pelo backend.
var ErrInvalidCredentials = fmt.Errorf("credenciais inválidas: %w", apperr.ErrUnauthorized)

// LoginResult descreve a sessão emitida pelo backend.
type LoginResult struct {
	AccessToken string
	User        json.RawMessage
	ExpiresAt   time.Time
}

// BackendClient autentica usuários do painel contra a API de conteúdo.
type BackendClient struct {
	client *resty.Client
}

// NewBackendClient recebe um cliente já apontado para BACKEND_ORIGIN.
func NewBackendClient(client *resty.Client) *BackendClient {
	return &BackendClient{client: client}
}

type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AccessToken string          `json:"accessToken"`
		User        json.RawMessage `json:"user"`
	} `json:"data"`
}

// Login troca email e senha por um access token do backend.
func (c *BackendClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{"email": strings.TrimSpace(email), "password": password}).
		Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case !resp.IsSuccess():
		return nil, fmt.Errorf("%w: login status %d", apperr.ErrUpstream, resp.StatusCode())
	}

	var payload loginEnvelope
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	if strings.TrimSpace(payload.Data.AccessToken) == "" {
		return nil, fmt.Errorf("%w: access token ausente", apperr.ErrParse)
	}

	result := &LoginResult{AccessToken: payload.Data.AccessToken, User: payload.Data.User}
	if exp, ok := TokenExpiry(payload.Data.AccessToken); ok {
		result.ExpiresAt = exp
	}
	return result, nil
}
