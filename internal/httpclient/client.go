// Package httpclient monta os clientes HTTP de saída (origens de upload e backend).
package httpclient

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const userAgent = "painel-conteudo/1.0"

// Options descreve um cliente de saída.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    zerolog.Logger
}

// New cria um cliente resty sem retries e sem seguir redirects, com timeout e propagação de X-Request-ID.
// Um 3xx da origem volta ao chamador como resposta, sem segunda chamada com o token.
func New(opts Options) *resty.Client {
	client := resty.New().
		SetLogger(zerologAdapter{logger: opts.Logger}).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		client.SetBaseURL(strings.TrimRight(base, "/"))
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if reqID := chimiddleware.GetReqID(req.Context()); reqID != "" {
			req.SetHeader(chimiddleware.RequestIDHeader, reqID)
		}
		return nil
	})

	return client
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (z zerologAdapter) Errorf(format string, v ...interface{}) {
	z.logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (z zerologAdapter) Warnf(format string, v ...interface{}) {
	z.logger.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (z zerologAdapter) Debugf(format string, v ...interface{}) {
	z.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
