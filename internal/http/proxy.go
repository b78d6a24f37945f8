package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gestaozabele/painel-conteudo/internal/proxy"
)

// BackendProxy repassa /api/backend-proxy/<caminho> ao backend com o token da sessão.
// Authorization vindo do navegador é descartado; status e corpo voltam inalterados.
func (h *Handler) BackendProxy(w http.ResponseWriter, r *http.Request) {
	segments, err := proxySegments(r.URL.EscapedPath())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "caminho inválido", nil)
		return
	}

	req := proxy.Request{
		Method:       r.Method,
		PathSegments: segments,
		RawQuery:     r.URL.RawQuery,
	}
	if r.Method != http.MethodGet {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.ProxyMaxBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "corpo excede o limite permitido", nil)
				return
			}
			WriteError(w, http.StatusBadRequest, "VALIDATION", "corpo ilegível", nil)
			return
		}
		req.Body = body
	}

	resp := h.forwarder.Forward(r.Context(), req)
	WriteRaw(w, resp.StatusCode, resp.Body)
}

func proxySegments(escapedPath string) ([]string, error) {
	rest := strings.TrimPrefix(escapedPath, backendProxyPrefix)
	var segments []string
	for _, raw := range strings.Split(rest, "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
