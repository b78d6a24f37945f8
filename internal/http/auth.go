package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
	"github.com/gestaozabele/painel-conteudo/internal/session"
	"github.com/gestaozabele/painel-conteudo/internal/util"
)

// Login autentica no backend e abre uma sessão do painel.
// O access token fica só no Redis; o navegador recebe apenas o cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := util.ValidateEmail(payload.Email); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.RequireString(payload.Password, "password"); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	result, err := h.backend.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	now := time.Now()
	expires := now.Add(h.cfg.SessionTTL)
	if !result.ExpiresAt.IsZero() && result.ExpiresAt.Before(expires) {
		expires = result.ExpiresAt
	}
	if !expires.After(now) {
		WriteError(w, http.StatusBadGateway, "UPSTREAM", "backend devolveu token expirado", nil)
		return
	}

	sess := session.Session{
		ID:          util.NewSessionID(),
		AccessToken: result.AccessToken,
		User:        result.User,
		ExpiresAt:   expires,
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg("falha ao salvar sessão")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível abrir sessão", nil)
		return
	}

	h.setSessionCookie(w, sess.ID, expires)
	WriteJSON(w, http.StatusOK, sessionView(sess))
}

// Logout encerra a sessão atual, se houver.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cfg.SessionCookie); err == nil && c.Value != "" {
		if err := h.sessions.Delete(r.Context(), c.Value); err != nil {
			log.Warn().Err(err).Msg("falha ao remover sessão")
		}
	}

	h.clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Session retorna o usuário da sessão atual.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if _, err := h.tokens.Token(r.Context()); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente ou expirada", nil)
		return
	}
	sess, _ := session.FromContext(r.Context())
	WriteJSON(w, http.StatusOK, sessionView(sess))
}

func sessionView(sess session.Session) map[string]any {
	user := sess.User
	if len(user) == 0 {
		user = json.RawMessage("null")
	}
	return map[string]any{
		"user":       user,
		"expires_at": sess.ExpiresAt,
	}
}

func (h *Handler) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "AUTH", "credenciais inválidas", nil)
	case errors.Is(err, apperr.ErrUpstream):
		WriteError(w, http.StatusBadGateway, "UPSTREAM", "backend indisponível", nil)
	default:
		log.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg("falha ao autenticar no backend")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, h.sessionCookie(id, expires, 0))
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.sessionCookie("", time.Time{}, -1))
}

func (h *Handler) sessionCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !h.devCookies,
		SameSite: sameSite,
	}
}
