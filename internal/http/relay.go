package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
	"github.com/gestaozabele/painel-conteudo/internal/auth"
	"github.com/gestaozabele/painel-conteudo/internal/upload"
	"github.com/gestaozabele/painel-conteudo/internal/util"
)

// RelaySingle atende POST /upload (campo file), o destino do modo relayed para um arquivo.
func (h *Handler) RelaySingle(w http.ResponseWriter, r *http.Request) {
	h.relayUpload(w, r, false)
}

// RelayBatch atende POST /upload/upload-multiple (campo files repetido).
func (h *Handler) RelayBatch(w http.ResponseWriter, r *http.Request) {
	h.relayUpload(w, r, true)
}

// relayUpload repassa o multipart ao BACKEND_ORIGIN e devolve o envelope da origem
// ({success,data:{file|files}}), que é o formato esperado por quem chamou em modo relayed.
func (h *Handler) relayUpload(w http.ResponseWriter, r *http.Request, batch bool) {
	token, err := h.relayToken(r)
	if err != nil {
		writeOriginError(w, http.StatusUnauthorized, "sessão inválida ou expirada")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeOriginError(w, http.StatusRequestEntityTooLarge, "upload excede o limite permitido")
			return
		}
		writeOriginError(w, http.StatusBadRequest, "formulário multipart inválido")
		return
	}
	defer r.MultipartForm.RemoveAll()

	field := "file"
	if batch {
		field = "files"
	}
	headers := r.MultipartForm.File[field]
	switch {
	case len(headers) == 0:
		writeOriginError(w, http.StatusBadRequest, "nenhum arquivo no campo "+field)
		return
	case !batch && len(headers) > 1:
		writeOriginError(w, http.StatusBadRequest, "envie um único arquivo no campo file")
		return
	}

	files, err := readMultipartFiles(headers)
	if err != nil {
		writeOriginError(w, http.StatusBadRequest, err.Error())
		return
	}

	feature := strings.TrimSpace(r.URL.Query().Get("feature"))
	if feature == "" {
		feature = upload.DefaultFeature
	}
	if err := util.ValidateFeatureTag(feature); err != nil {
		writeOriginError(w, http.StatusBadRequest, err.Error())
		return
	}

	dest := upload.Destination{Strategy: upload.StrategyRelayed, BaseURL: h.cfg.BackendOrigin}

	var resp *upload.OriginResponse
	if batch {
		resp, err = h.multipart.SendBatch(r.Context(), token, dest, feature, files)
	} else {
		var responses []upload.OriginResponse
		responses, err = h.multipart.SendSequential(r.Context(), token, dest, feature, files)
		if err == nil {
			resp = &responses[0]
		}
	}
	if err != nil {
		writeRelayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// relayToken prefere a sessão do cookie; sem ela aceita o bearer de quem roda
// o orquestrador fora do painel e já possui o token do backend.
func (h *Handler) relayToken(r *http.Request) (string, error) {
	if token, err := h.tokens.Token(r.Context()); err == nil {
		return token, nil
	}
	return auth.BearerToken(r.Header.Get("Authorization"), time.Now())
}

func writeRelayError(w http.ResponseWriter, err error) {
	var uerr *upload.Error
	if !errors.As(err, &uerr) {
		writeOriginError(w, http.StatusInternalServerError, "falha ao enviar arquivos")
		return
	}
	message := uerr.Message
	if !apperr.Exposable(uerr) {
		message = "falha ao enviar arquivos"
	}
	writeOriginError(w, uerr.StatusCode(), message)
}

func writeOriginError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(upload.OriginResponse{Success: false, Message: message})
}
