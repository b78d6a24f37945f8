package middleware

import (
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painel-conteudo/internal/session"
)

// Session carrega a sessão indicada pelo cookie e a injeta no contexto.
// O header Authorization não é lido aqui; só as rotas de relay de upload o aceitam na falta de sessão.
// Falha do store é registrada e tratada como requisição anônima.
func Session(store session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), c.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					log.Warn().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).
						Msg("falha ao carregar sessão")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession bloqueia rotas que exigem sessão válida.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || sess.Expired(time.Now()) {
			writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente ou expirada")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionID devolve o id da sessão atual, se houver.
func SessionID(r *http.Request) string {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return ""
	}
	return sess.ID
}
