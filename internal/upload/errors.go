package upload

import (
	"errors"
	"fmt"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
)

// Etapas em que um upload pode falhar.
const (
	StageAuth       = "auth"
	StageValidation = "validation"
	StageBatch      = "batch"
	StageSingle     = "single"
	StageAggregate  = "aggregate"
)

// Error descreve uma falha de upload e a etapa em que ocorreu.
// Err é sempre um sentinel de apperr; Cause guarda o detalhe interno para log.
type Error struct {
	Stage   string
	Message string
	Status  int
	Err     error
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload %s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode devolve o status a expor ao cliente do painel.
// Erros da origem 4xx/5xx são repassados; o restante segue a taxonomia.
func (e *Error) StatusCode() int {
	if errors.Is(e.Err, apperr.ErrUpstream) && e.Status >= 400 {
		return e.Status
	}
	return apperr.Status(e.Err)
}

func asUploadError(stage string, err error) *Error {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr
	}
	return &Error{Stage: stage, Message: "falha no envio", Err: apperr.ErrNetwork, Cause: err}
}
