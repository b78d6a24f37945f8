// Package apperr define a taxonomia de erros compartilhada entre upload e proxy.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized indica sessão ausente ou token inválido.
	ErrUnauthorized = errors.New("não autenticado")
	// ErrValidation indica payload inválido detectado localmente.
	ErrValidation = errors.New("requisição inválida")
	// ErrUpstream indica resposta de erro da origem remota.
	ErrUpstream = errors.New("origem respondeu com erro")
	// ErrNetwork indica falha de transporte ao falar com a origem.
	ErrNetwork = errors.New("falha de comunicação com a origem")
	// ErrParse indica corpo de resposta ilegível (não-JSON ou formato inesperado).
	ErrParse = errors.New("resposta da origem ilegível")
)

// Status converte um erro da taxonomia em status HTTP.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code devolve o código usado no envelope de erro.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "AUTH"
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM"
	default:
		return "INTERNAL"
	}
}

// Exposable informa se a mensagem do erro pode ser mostrada ao cliente.
// Falhas de rede e de parse ficam apenas no log local.
func Exposable(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrValidation) || errors.Is(err, ErrUpstream)
}
