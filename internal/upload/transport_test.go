package upload

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
)

func TestSendBatchSingleCallWithRepeatedField(t *testing.T) {
	origin := newFakeOrigin(t)
	transport := newTestTransport()

	files := textFiles("a.txt", "b.txt", "c.txt")
	files[1].MimeType = ""
	dest := Destination{Strategy: StrategyRelayed, BaseURL: origin.URL()}

	resp, err := transport.SendBatch(context.Background(), "tok-1", dest, "course-cover", files)
	require.NoError(t, err)

	calls := origin.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/upload/upload-multiple", calls[0].Path)
	assert.Equal(t, "course-cover", calls[0].Feature)
	assert.Equal(t, "Bearer tok-1", calls[0].Authorization)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, calls[0].FileNames)
	assert.Equal(t, []string{"text/plain", "application/octet-stream", "text/plain"}, calls[0].ContentTypes)
	assert.Equal(t, "conteúdo de b.txt", calls[0].Bodies[1])

	require.Len(t, resp.Data.Files, 3)
	assert.Equal(t, "course-cover/a.txt", resp.Data.Files[0].Key)
	assert.Equal(t, "course-cover/c.txt", resp.Data.Files[2].Key)
}

func TestSendBatchFailsAtomically(t *testing.T) {
	origin := newFakeOrigin(t)
	origin.failOn = 1
	transport := newTestTransport()

	resp, err := transport.SendBatch(context.Background(), "tok", Destination{BaseURL: origin.URL()}, "general", textFiles("a.txt", "b.txt"))
	require.Error(t, err)
	assert.Nil(t, resp)

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, StageBatch, uerr.Stage)
	assert.Equal(t, "arquivo rejeitado", uerr.Message)
	assert.Equal(t, http.StatusRequestEntityTooLarge, uerr.Status)
	assert.Equal(t, http.StatusRequestEntityTooLarge, uerr.StatusCode())
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestSendSequentialOneCallPerFileInOrder(t *testing.T) {
	origin := newFakeOrigin(t)
	transport := newTestTransport()

	resps, err := transport.SendSequential(context.Background(), "tok", Destination{BaseURL: origin.URL()}, "general", textFiles("1.txt", "2.txt"))
	require.NoError(t, err)
	require.Len(t, resps, 2)

	calls := origin.Calls()
	require.Len(t, calls, 2)
	for i, name := range []string{"1.txt", "2.txt"} {
		assert.Equal(t, "/upload", calls[i].Path)
		assert.Equal(t, []string{name}, calls[i].FileNames)
		assert.Equal(t, "general/"+name, resps[i].Data.File.Key)
	}
}

// Arquivos enviados antes da falha ficam na origem e não aparecem no retorno.
func TestSendSequentialFailFastDiscardsEarlierResults(t *testing.T) {
	origin := newFakeOrigin(t)
	origin.failOn = 2
	transport := newTestTransport()

	resps, err := transport.SendSequential(context.Background(), "tok", Destination{BaseURL: origin.URL()}, "general", textFiles("1.txt", "2.txt", "3.txt"))
	require.Error(t, err)
	assert.Nil(t, resps)
	assert.Len(t, origin.Calls(), 2, "a terceira chamada não deve acontecer")

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, StageSingle, uerr.Stage)
}

func TestSendSequentialStopsOnFirstFailure(t *testing.T) {
	origin := newFakeOrigin(t)
	origin.failOn = 1
	origin.failStatus = http.StatusInternalServerError

	_, err := newTestTransport().SendSequential(context.Background(), "tok", Destination{BaseURL: origin.URL()}, "general", textFiles("1.txt", "2.txt"))
	require.Error(t, err)
	assert.Len(t, origin.Calls(), 1)
}

func TestTransportParseAndNetworkErrors(t *testing.T) {
	htmlOrigin := newRawOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	})

	_, err := newTestTransport().SendSequential(context.Background(), "tok", Destination{BaseURL: htmlOrigin.URL}, "general", textFiles("a.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrParse))

	refused := newRawOrigin(t, func(w http.ResponseWriter, r *http.Request) {})
	refused.Close()
	_, err = newTestTransport().SendBatch(context.Background(), "tok", Destination{BaseURL: refused.URL}, "general", textFiles("a.txt", "b.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNetwork))
	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.NotNil(t, uerr.Cause)
	assert.Equal(t, http.StatusInternalServerError, uerr.StatusCode())
}

func TestTransportSuccessFalseIsUpstreamError(t *testing.T) {
	origin := newRawOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := newTestTransport().SendSequential(context.Background(), "tok", Destination{BaseURL: origin.URL}, "general", textFiles("a.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Contains(t, err.Error(), "upload recusado pela origem")
}

func TestUpstreamMessage(t *testing.T) {
	assert.Equal(t, "muito grande", upstreamMessage([]byte(`{"message":"muito grande"}`), "413"))
	assert.Equal(t, "negado", upstreamMessage([]byte(`{"error":"negado"}`), "403"))
	assert.Equal(t, "502 Bad Gateway", upstreamMessage([]byte(`<html>`), "502 Bad Gateway"))
	assert.Equal(t, "upload falhou", upstreamMessage(nil, ""))
}
