package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
)

const (
	singlePath = "/upload"
	multiPath  = "/upload/upload-multiple"
)

// BatchTransport envia todos os arquivos em uma única chamada multipart.
type BatchTransport interface {
	SendBatch(ctx context.Context, token string, dest Destination, feature string, files []File) (*OriginResponse, error)
}

// SingleTransport envia um arquivo por chamada, em sequência.
type SingleTransport interface {
	SendSequential(ctx context.Context, token string, dest Destination, feature string, files []File) ([]OriginResponse, error)
}

// MultipartTransport implementa os dois transportes sobre o mesmo cliente HTTP.
type MultipartTransport struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewMultipartTransport recebe um cliente sem base URL; o destino vem de cada chamada.
func NewMultipartTransport(client *resty.Client, logger zerolog.Logger) *MultipartTransport {
	return &MultipartTransport{client: client, logger: logger}
}

// SendBatch faz um único POST em /upload/upload-multiple com o campo "files" repetido.
// Qualquer status de erro falha o lote inteiro. A ordem de data.files é assumida igual
// à ordem de envio; a origem não devolve identificador de correlação.
func (t *MultipartTransport) SendBatch(ctx context.Context, token string, dest Destination, feature string, files []File) (*OriginResponse, error) {
	fields := make([]*resty.MultipartField, 0, len(files))
	for _, f := range files {
		fields = append(fields, multipartField("files", f))
	}
	return t.post(ctx, StageBatch, token, dest.BaseURL+multiPath, feature, fields)
}

// SendSequential faz um POST em /upload por arquivo, um após o outro.
// Na primeira falha interrompe e devolve só o erro: arquivos já enviados
// permanecem na origem e seus resultados são descartados.
func (t *MultipartTransport) SendSequential(ctx context.Context, token string, dest Destination, feature string, files []File) ([]OriginResponse, error) {
	responses := make([]OriginResponse, 0, len(files))
	for i, f := range files {
		resp, err := t.post(ctx, StageSingle, token, dest.BaseURL+singlePath, feature, []*resty.MultipartField{multipartField("file", f)})
		if err != nil {
			if i > 0 {
				t.logger.Warn().Int("enviados", i).Int("total", len(files)).Str("arquivo", f.Name).
					Msg("upload sequencial interrompido; arquivos anteriores ficaram na origem")
			}
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (t *MultipartTransport) post(ctx context.Context, stage, token, endpoint, feature string, fields []*resty.MultipartField) (*OriginResponse, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetQueryParam("feature", feature).
		SetMultipartFields(fields...).
		Post(endpoint)
	if err != nil {
		return nil, &Error{Stage: stage, Message: "falha de comunicação com a origem", Err: apperr.ErrNetwork, Cause: err}
	}

	if !resp.IsSuccess() {
		return nil, &Error{
			Stage:   stage,
			Message: upstreamMessage(resp.Body(), resp.Status()),
			Status:  resp.StatusCode(),
			Err:     apperr.ErrUpstream,
		}
	}

	var payload OriginResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &Error{Stage: stage, Message: "resposta da origem ilegível", Err: apperr.ErrParse, Cause: err}
	}
	if !payload.Success {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = "upload recusado pela origem"
		}
		return nil, &Error{Stage: stage, Message: msg, Status: resp.StatusCode(), Err: apperr.ErrUpstream}
	}

	return &payload, nil
}

func multipartField(param string, f File) *resty.MultipartField {
	contentType := strings.TrimSpace(f.MimeType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &resty.MultipartField{
		Param:       param,
		FileName:    f.Name,
		ContentType: contentType,
		Reader:      bytes.NewReader(f.Bytes),
	}
}

// upstreamMessage extrai "message" do corpo de erro da origem, se houver.
func upstreamMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	if strings.TrimSpace(fallback) == "" {
		return "upload falhou"
	}
	return fallback
}
