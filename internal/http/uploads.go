package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
	"github.com/gestaozabele/painel-conteudo/internal/upload"
)

const multipartMemory = 32 << 20

var errMixedFileFields = errors.New("use apenas o campo files ou apenas o campo file")

// Upload roda o orquestrador dentro do próprio painel: os bytes já chegaram aqui,
// então todo pedido respeita UPLOAD_MAX_BYTES, inclusive os que seguem em modo direct.
// Clientes que precisam do direct sem esse limite rodam o orquestrador do lado deles
// (ver cmd/upload) e usam as rotas /upload e /upload/upload-multiple como relay.
// Query: feature (categoria), direct (força envio direto), origin (override permitido).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.tokens.Token(r.Context()); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão inválida ou expirada", map[string]string{"stage": upload.StageAuth})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "upload excede o limite permitido", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário multipart inválido", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readUploadFiles(r.MultipartForm)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	q := r.URL.Query()
	req := upload.Request{
		Files:          files,
		Feature:        q.Get("feature"),
		OriginOverride: q.Get("origin"),
	}
	if raw := q.Get("direct"); raw != "" {
		direct, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "parâmetro direct inválido", nil)
			return
		}
		req.ExplicitDirect = &direct
	}

	outcomes, err := h.uploads.Upload(r.Context(), req)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

// readUploadFiles aceita o campo "files" (lote) ou "file" (único), nunca os dois:
// o multipart.Form agrupa por campo e a ordem de envio entre campos se perderia.
func readUploadFiles(form *multipart.Form) ([]upload.File, error) {
	batch, single := form.File["files"], form.File["file"]
	if len(batch) > 0 && len(single) > 0 {
		return nil, errMixedFileFields
	}
	headers := batch
	if len(headers) == 0 {
		headers = single
	}
	return readMultipartFiles(headers)
}

func readMultipartFiles(headers []*multipart.FileHeader) ([]upload.File, error) {
	files := make([]upload.File, 0, len(headers))
	for _, header := range headers {
		f, err := readMultipartFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readMultipartFile(header *multipart.FileHeader) (upload.File, error) {
	src, err := header.Open()
	if err != nil {
		return upload.File{}, fmt.Errorf("não foi possível ler %s", header.Filename)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return upload.File{}, fmt.Errorf("não foi possível ler %s", header.Filename)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return upload.File{
		Name:     header.Filename,
		Size:     int64(len(data)),
		MimeType: contentType,
		Bytes:    data,
	}, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var uerr *upload.Error
	if !errors.As(err, &uerr) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "falha ao enviar arquivos", nil)
		return
	}

	message := uerr.Message
	if !apperr.Exposable(uerr) {
		message = "falha ao enviar arquivos"
	}
	WriteError(w, uerr.StatusCode(), apperr.Code(uerr), message, map[string]string{"stage": uerr.Stage})
}
