package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
	"github.com/gestaozabele/painel-conteudo/internal/auth"
	"github.com/gestaozabele/painel-conteudo/internal/util"
)

// DefaultFeature é usada quando o pedido não informa a categoria.
const DefaultFeature = "general"

// Service orquestra estratégia, transporte e normalização de um upload.
type Service struct {
	tokens  auth.TokenProvider
	origins Origins
	batch   BatchTransport
	single  SingleTransport
	logger  zerolog.Logger
}

// NewService monta o orquestrador com dependências explícitas.
func NewService(tokens auth.TokenProvider, origins Origins, batch BatchTransport, single SingleTransport, logger zerolog.Logger) *Service {
	return &Service{
		tokens:  tokens,
		origins: origins,
		batch:   batch,
		single:  single,
		logger:  logger,
	}
}

// Upload envia os arquivos e devolve um resultado por arquivo, na ordem de entrada.
// Em qualquer falha devolve apenas *Error, nunca lista parcial.
func (s *Service) Upload(ctx context.Context, req Request) ([]Outcome, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, &Error{Stage: StageAuth, Message: "sessão inválida ou expirada", Err: apperr.ErrUnauthorized, Cause: err}
	}

	if len(req.Files) == 0 {
		return nil, &Error{Stage: StageValidation, Message: "nenhum arquivo enviado", Err: apperr.ErrValidation}
	}

	feature := strings.TrimSpace(req.Feature)
	if feature == "" {
		feature = DefaultFeature
	}
	if err := util.ValidateFeatureTag(feature); err != nil {
		return nil, &Error{Stage: StageValidation, Message: err.Error(), Err: apperr.ErrValidation}
	}

	explicitDirect := req.ExplicitDirect != nil && *req.ExplicitDirect
	strategy := Decide(req.Files, explicitDirect)

	dest, err := s.origins.Resolve(strategy, req.OriginOverride)
	if err != nil {
		return nil, &Error{Stage: StageValidation, Message: "origem de upload não permitida", Err: apperr.ErrValidation, Cause: err}
	}

	logger := s.logger.With().
		Str("strategy", strategy.String()).
		Str("feature", feature).
		Int("files", len(req.Files)).
		Logger()

	var outcomes []Outcome
	if len(req.Files) > 1 {
		raw, err := s.batch.SendBatch(ctx, token, dest, feature, req.Files)
		if err != nil {
			return nil, s.fail(logger, StageBatch, err)
		}
		outcomes = Normalize(ModeBatch, []OriginResponse{*raw})
	} else {
		raw, err := s.single.SendSequential(ctx, token, dest, feature, req.Files)
		if err != nil {
			return nil, s.fail(logger, StageSingle, err)
		}
		outcomes = Normalize(ModeSingle, raw)
	}

	if len(outcomes) != len(req.Files) {
		uerr := &Error{
			Stage:   StageAggregate,
			Message: fmt.Sprintf("origem devolveu %d arquivos para %d enviados", len(outcomes), len(req.Files)),
			Err:     apperr.ErrParse,
		}
		logger.Error().Str("stage", uerr.Stage).Msg(uerr.Message)
		return nil, uerr
	}

	logger.Info().Msg("upload concluído")
	return outcomes, nil
}

func (s *Service) fail(logger zerolog.Logger, stage string, err error) *Error {
	uerr := asUploadError(stage, err)
	event := logger.Error().Str("stage", uerr.Stage).Int("upstream_status", uerr.Status)
	if uerr.Cause != nil {
		event = event.AnErr("cause", uerr.Cause)
	}
	event.Msg(uerr.Message)
	return uerr
}
