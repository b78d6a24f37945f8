package upload

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painel-conteudo/internal/httpclient"
)

type originCall struct {
	Path          string
	Feature       string
	Authorization string
	Field         string
	FileNames     []string
	ContentTypes  []string
	Bodies        []string
}

// fakeOrigin imita os endpoints /upload e /upload/upload-multiple.
// failOn indica (1-based) qual chamada deve responder com erro; 0 nunca falha.
type fakeOrigin struct {
	t          *testing.T
	mu         sync.Mutex
	calls      []originCall
	failOn     int
	failStatus int
	reverse    bool
	srv        *httptest.Server
}

func newFakeOrigin(t *testing.T) *fakeOrigin {
	t.Helper()
	o := &fakeOrigin{t: t, failStatus: http.StatusRequestEntityTooLarge}
	o.srv = httptest.NewServer(http.HandlerFunc(o.handle))
	t.Cleanup(o.srv.Close)
	return o
}

func (o *fakeOrigin) URL() string { return o.srv.URL }

func (o *fakeOrigin) Calls() []originCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]originCall(nil), o.calls...)
}

func (o *fakeOrigin) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, `{"success":false,"message":"multipart inválido"}`, http.StatusBadRequest)
		return
	}

	field := "file"
	if r.URL.Path == multiPath {
		field = "files"
	}

	call := originCall{
		Path:          r.URL.Path,
		Feature:       r.URL.Query().Get("feature"),
		Authorization: r.Header.Get("Authorization"),
		Field:         field,
	}
	var descriptors []Descriptor
	for _, header := range r.MultipartForm.File[field] {
		f, err := header.Open()
		if err != nil {
			o.t.Errorf("abrir parte: %v", err)
			return
		}
		body, _ := io.ReadAll(f)
		_ = f.Close()

		call.FileNames = append(call.FileNames, header.Filename)
		call.ContentTypes = append(call.ContentTypes, header.Header.Get("Content-Type"))
		call.Bodies = append(call.Bodies, string(body))
		descriptors = append(descriptors, Descriptor{
			Key:          call.Feature + "/" + header.Filename,
			URL:          "https://cdn.example.com/" + call.Feature + "/" + header.Filename,
			Name:         header.Filename,
			OriginalName: header.Filename,
			Size:         header.Size,
			Category:     call.Feature,
		})
	}

	o.mu.Lock()
	o.calls = append(o.calls, call)
	n := len(o.calls)
	o.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if o.failOn == n {
		w.WriteHeader(o.failStatus)
		_, _ = w.Write([]byte(`{"success":false,"message":"arquivo rejeitado"}`))
		return
	}

	if o.reverse {
		for i, j := 0, len(descriptors)-1; i < j; i, j = i+1, j-1 {
			descriptors[i], descriptors[j] = descriptors[j], descriptors[i]
		}
	}

	payload := map[string]any{"success": true}
	if field == "files" {
		payload["data"] = map[string]any{"files": descriptors}
	} else if len(descriptors) > 0 {
		payload["data"] = map[string]any{"file": descriptors[0]}
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func newRawOrigin(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newTestTransport() *MultipartTransport {
	client := httpclient.New(httpclient.Options{Logger: zerolog.Nop()})
	return NewMultipartTransport(client, zerolog.Nop())
}

func textFiles(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, name := range names {
		body := []byte("conteúdo de " + name)
		files = append(files, File{Name: name, Size: int64(len(body)), MimeType: "text/plain", Bytes: body})
	}
	return files
}
