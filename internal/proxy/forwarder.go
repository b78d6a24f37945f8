// Package proxy repassa chamadas autenticadas do painel para o backend de conteúdo.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/painel-conteudo/internal/auth"
)

// AllowedMethods lista os métodos que podem ser repassados.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPatch,
	http.MethodPut,
	http.MethodDelete,
}

var errInvalidPath = errors.New("caminho inválido")

// Request é a chamada recebida, já sem prefixo e sem cabeçalhos do cliente.
type Request struct {
	Method       string
	PathSegments []string
	RawQuery     string
	Body         []byte
}

// Response é devolvida ao cliente exatamente como recebida da origem.
type Response struct {
	StatusCode int
	Body       []byte
}

// Forwarder anexa o token da sessão e repassa a chamada, sem interpretar o payload.
type Forwarder struct {
	tokens auth.TokenProvider
	base   string
	client *resty.Client
	logger zerolog.Logger
}

// NewForwarder cria o proxy para a base BACKEND_ORIGIN.
func NewForwarder(tokens auth.TokenProvider, backendOrigin string, client *resty.Client, logger zerolog.Logger) *Forwarder {
	return &Forwarder{
		tokens: tokens,
		base:   strings.TrimRight(backendOrigin, "/"),
		client: client,
		logger: logger,
	}
}

// MethodAllowed informa se o método pode ser repassado.
func MethodAllowed(method string) bool {
	for _, m := range AllowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Forward executa uma única tentativa, sem retry.
// Sem token responde 401 sem tocar a rede; falha de rede ou corpo não-JSON vira 500 genérico.
func (f *Forwarder) Forward(ctx context.Context, req Request) Response {
	if !MethodAllowed(req.Method) {
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "método não permitido")
	}

	token, err := f.tokens.Token(ctx)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "AUTH", "não autenticado")
	}

	target, err := f.target(req)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "VALIDATION", err.Error())
	}

	outbound := f.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if req.Method != http.MethodGet {
		body := req.Body
		if body == nil {
			body = []byte{}
		}
		outbound.SetBody(body)
	}

	resp, err := outbound.Execute(req.Method, target)
	if err != nil {
		f.logger.Error().Err(err).Str("method", req.Method).Str("target", target).Msg("falha ao contatar backend")
		return internalError()
	}

	body := resp.Body()
	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		f.logger.Error().Str("method", req.Method).Str("target", target).Int("status", resp.StatusCode()).
			Str("content_type", resp.Header().Get("Content-Type")).Msg("backend respondeu corpo não-JSON")
		return internalError()
	}

	f.logger.Debug().Str("method", req.Method).Str("target", target).Int("status", resp.StatusCode()).Msg("proxy")
	return Response{StatusCode: resp.StatusCode(), Body: body}
}

func (f *Forwarder) target(req Request) (string, error) {
	escaped := make([]string, 0, len(req.PathSegments))
	for _, seg := range req.PathSegments {
		if seg == "" {
			continue
		}
		if seg == "." || seg == ".." {
			return "", errInvalidPath
		}
		escaped = append(escaped, url.PathEscape(seg))
	}
	if len(escaped) == 0 {
		return "", errInvalidPath
	}

	target := f.base + "/" + strings.Join(escaped, "/")
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	return target, nil
}

func errorResponse(status int, code, message string) Response {
	body, _ := json.Marshal(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
	return Response{StatusCode: status, Body: body}
}

func internalError() Response {
	return errorResponse(http.StatusInternalServerError, "INTERNAL", "falha ao contatar o backend")
}
