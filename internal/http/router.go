package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painel-conteudo/internal/auth"
	"github.com/gestaozabele/painel-conteudo/internal/config"
	httpmiddleware "github.com/gestaozabele/painel-conteudo/internal/http/middleware"
	"github.com/gestaozabele/painel-conteudo/internal/httpclient"
	"github.com/gestaozabele/painel-conteudo/internal/proxy"
	"github.com/gestaozabele/painel-conteudo/internal/session"
	"github.com/gestaozabele/painel-conteudo/internal/upload"
)

const backendProxyPrefix = "/api/backend-proxy"

type Handler struct {
	cfg           *config.Config
	sessions      session.Store
	ping          func(ctx context.Context) error
	tokens        auth.TokenProvider
	backend       *auth.BackendClient
	uploads       *upload.Service
	multipart     *upload.MultipartTransport
	forwarder     *proxy.Forwarder
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// Dependencies reúne os colaboradores externos do roteador.
type Dependencies struct {
	Sessions session.Store
	// Ping verifica o armazenamento de sessões em /ready.
	Ping func(ctx context.Context) error
	// Transport substitui o transporte HTTP de saída; nil usa o padrão.
	Transport http.RoundTripper
}

// NewRouter devolve roteador configurado com sessões em Redis.
func NewRouter(cfg *config.Config, redisClient *redis.Client) (http.Handler, error) {
	return NewRouterWith(cfg, Dependencies{
		Sessions: session.NewRedisStore(redisClient),
		Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})
}

// NewRouterWith monta o roteador a partir de dependências explícitas.
func NewRouterWith(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	uploadLogger := log.With().Str("component", "upload").Logger()
	proxyLogger := log.With().Str("component", "proxy").Logger()

	tokens := auth.NewSessionTokenProvider()

	uploadClient := httpclient.New(httpclient.Options{
		Timeout:   cfg.UploadTimeout,
		Transport: deps.Transport,
		Logger:    uploadLogger,
	})
	backendClient := httpclient.New(httpclient.Options{
		BaseURL:   cfg.BackendOrigin,
		Timeout:   cfg.ProxyTimeout,
		Transport: deps.Transport,
		Logger:    proxyLogger,
	})

	multipart := upload.NewMultipartTransport(uploadClient, uploadLogger)
	// aqui o próprio processo é o relay: o modo relayed vai direto ao backend
	origins := upload.Origins{
		Direct:  cfg.PublicOrigin,
		Relayed: cfg.BackendOrigin,
		Allowed: cfg.UploadAllowedOrigins,
	}

	h := &Handler{
		cfg:           cfg,
		sessions:      deps.Sessions,
		ping:          deps.Ping,
		tokens:        tokens,
		backend:       auth.NewBackendClient(backendClient),
		uploads:       upload.NewService(tokens, origins, multipart, multipart, uploadLogger),
		multipart:     multipart,
		forwarder:     proxy.NewForwarder(tokens, cfg.BackendOrigin, backendClient, proxyLogger),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    cfg.DevCookies(),
	}

	r := chi.NewRouter()

	r.Use(httpmiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Session(h.sessions, cfg.SessionCookie))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "rota não encontrada", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "método não permitido", nil)
	})

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/api/auth", func(a chi.Router) {
			a.Post("/login", h.Login)
			a.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.SessionRateLimit(h.authLimiter))

		private.With(httpmiddleware.RequireSession).Get("/api/auth/session", h.Session)
		private.Post("/api/uploads", h.Upload)

		// destino relayed de quem roda o orquestrador fora do painel
		private.Post("/upload", h.RelaySingle)
		private.Post("/upload/upload-multiple", h.RelayBatch)

		// O forwarder responde 401 por conta própria quando não há token.
		for _, method := range proxy.AllowedMethods {
			private.MethodFunc(method, backendProxyPrefix+"/*", h.BackendProxy)
		}
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida a conexão com o armazenamento de sessões.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var sessionErr error
	if h.ping != nil {
		sessionErr = h.ping(ctx)
	}

	if sessionErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"redis": sessionErr.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
