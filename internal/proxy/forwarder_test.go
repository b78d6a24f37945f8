package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/painel-conteudo/internal/auth"
	"github.com/gestaozabele/painel-conteudo/internal/httpclient"
)

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{}`)), Header: http.Header{}}, nil
}

type seenRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization []string
	ContentType   string
	Body          []byte
}

func newBackend(t *testing.T, status int, body string) (*httptest.Server, *[]seenRequest) {
	t.Helper()
	var seen []seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = append(seen, seenRequest{
			Method:        r.Method,
			Path:          r.URL.EscapedPath(),
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Values("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          raw,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newForwarder(tokens auth.TokenProvider, base string, transport http.RoundTripper) *Forwarder {
	client := httpclient.New(httpclient.Options{Transport: transport, Logger: zerolog.Nop()})
	return NewForwarder(tokens, base, client, zerolog.Nop())
}

func TestForwardWithoutTokenNeverCallsBackend(t *testing.T) {
	transport := &countingTransport{}
	fwd := newForwarder(stubTokens{err: auth.ErrNoToken}, "http://backend.local", transport)

	for _, method := range AllowedMethods {
		resp := fwd.Forward(context.Background(), Request{Method: method, PathSegments: []string{"courses"}, Body: []byte(`{}`)})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, method)
	}
	assert.Zero(t, transport.calls.Load())
}

func TestForwardUsesProviderTokenOnly(t *testing.T) {
	backend, seen := newBackend(t, http.StatusOK, `{"ok":true}`)
	fwd := newForwarder(stubTokens{token: "token-da-sessao"}, backend.URL, nil)

	resp := fwd.Forward(context.Background(), Request{Method: http.MethodGet, PathSegments: []string{"courses"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, *seen, 1)
	assert.Equal(t, []string{"Bearer token-da-sessao"}, (*seen)[0].Authorization)
	assert.Equal(t, "application/json", (*seen)[0].ContentType)
}

func TestForwardBodyOnlyForNonGet(t *testing.T) {
	payload := []byte(`{"title":"Matemática básica","tags":["a","b"]}`)

	for _, method := range AllowedMethods {
		t.Run(method, func(t *testing.T) {
			backend, seen := newBackend(t, http.StatusOK, `{}`)
			fwd := newForwarder(stubTokens{token: "tok"}, backend.URL, nil)

			resp := fwd.Forward(context.Background(), Request{Method: method, PathSegments: []string{"courses", "42"}, Body: payload})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Len(t, *seen, 1)

			got := (*seen)[0]
			assert.Equal(t, method, got.Method)
			assert.Equal(t, "/courses/42", got.Path)
			if method == http.MethodGet {
				assert.Empty(t, got.Body)
			} else {
				assert.Equal(t, payload, got.Body)
			}
		})
	}
}

func TestForwardRelaysStatusAndBodyUnchanged(t *testing.T) {
	errBody := `{"success":false,"message":"Curso não encontrado","details":{"id":"42"}}`
	backend, _ := newBackend(t, http.StatusNotFound, errBody)
	fwd := newForwarder(stubTokens{token: "tok"}, backend.URL+"/", nil)

	resp := fwd.Forward(context.Background(), Request{Method: http.MethodDelete, PathSegments: []string{"courses", "42"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errBody, string(resp.Body))
}

func TestForwardPathAndQuery(t *testing.T) {
	backend, seen := newBackend(t, http.StatusOK, `[]`)
	fwd := newForwarder(stubTokens{token: "tok"}, backend.URL, nil)

	resp := fwd.Forward(context.Background(), Request{
		Method:       http.MethodGet,
		PathSegments: []string{"children", "", "relatório anual", "a/b"},
		RawQuery:     "page=2&limit=20",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := (*seen)[0]
	assert.Equal(t, "/children/relat%C3%B3rio%20anual/a%2Fb", got.Path)
	assert.Equal(t, "page=2&limit=20", got.RawQuery)
}

func TestForwardRejectsBadInputWithoutNetwork(t *testing.T) {
	transport := &countingTransport{}
	fwd := newForwarder(stubTokens{token: "tok"}, "http://backend.local", transport)

	resp := fwd.Forward(context.Background(), Request{Method: http.MethodGet, PathSegments: []string{"..", "admin"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = fwd.Forward(context.Background(), Request{Method: http.MethodGet})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = fwd.Forward(context.Background(), Request{Method: http.MethodOptions, PathSegments: []string{"courses"}})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	assert.Zero(t, transport.calls.Load())
}

func TestForwardFailuresAreGeneric(t *testing.T) {
	htmlBackend, _ := newBackend(t, http.StatusBadGateway, "<html>nginx stack trace</html>")
	fwd := newForwarder(stubTokens{token: "tok"}, htmlBackend.URL, nil)

	resp := fwd.Forward(context.Background(), Request{Method: http.MethodGet, PathSegments: []string{"courses"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(resp.Body), "nginx")

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	fwd = newForwarder(stubTokens{token: "tok"}, down.URL, nil)

	resp = fwd.Forward(context.Background(), Request{Method: http.MethodPost, PathSegments: []string{"courses"}, Body: []byte(`{}`)})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &envelope))
	assert.Equal(t, "INTERNAL", envelope.Error.Code)
	assert.NotContains(t, envelope.Error.Message, "connection refused")
}

func TestForwardEmptyBodyIsRelayed(t *testing.T) {
	backend, _ := newBackend(t, http.StatusNoContent, "")
	fwd := newForwarder(stubTokens{token: "tok"}, backend.URL, nil)

	resp := fwd.Forward(context.Background(), Request{Method: http.MethodDelete, PathSegments: []string{"payments", "9"}})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestForwardRelaysRedirectWithoutFollowing(t *testing.T) {
	var seen []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path+"="+r.Header.Get("Authorization"))
		if r.URL.Path == "/courses" {
			w.Header().Set("Location", "/elsewhere")
			w.WriteHeader(http.StatusFound)
			_, _ = w.Write([]byte(`{"redirect":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"other":true}`))
	}))
	t.Cleanup(backend.Close)

	fwd := newForwarder(stubTokens{token: "tok"}, backend.URL, nil)
	resp := fwd.Forward(context.Background(), Request{Method: http.MethodGet, PathSegments: []string{"courses"}})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.JSONEq(t, `{"redirect":true}`, string(resp.Body))
	assert.Equal(t, []string{"/courses=Bearer tok"}, seen)
}
