package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/texfig/texfig/pkg/assets"
	"github.com/texfig/texfig/pkg/cache"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/render"
)

type stubTypesetter struct{ fail bool }

func (s stubTypesetter) Typeset(ctx context.Context, document string) ([]byte, error) {
	if s.fail {
		return nil, errors.New(errors.ErrCodeTypeset, "! Emergency stop")
	}
	return []byte("%PDF-stub"), nil
}

type stubVectorizer struct{}

func (stubVectorizer) Vectorize(ctx context.Context, pdf []byte) ([]byte, error) {
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), nil
}

func newTestServer(t *testing.T, ts render.Typesetter) *server {
	t.Helper()
	store, err := assets.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := render.NewPipeline(store, nil,
		render.WithLaTeXRenderer(&render.LaTeXRenderer{Typesetter: ts, Vectorizer: stubVectorizer{}}))
	return &server{
		pipeline:  p,
		responses: cache.NewNullCache(),
		logger:    log.New(&bytes.Buffer{}),
	}
}

func TestServeHealthz(t *testing.T) {
	s := newTestServer(t, stubTypesetter{})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServeRender(t *testing.T) {
	s := newTestServer(t, stubTypesetter{})
	body := `{"dialect":"tikz","source":"\\draw (0,0) -- (1,1);"}`
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp renderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Light, "/assets/") || !strings.HasPrefix(resp.Dark, "/assets/") {
		t.Errorf("asset URLs = %+v", resp)
	}
	if resp.Light == resp.Dark {
		t.Error("light and dark must be distinct assets")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("responses should carry a request id")
	}

	// The asset URLs must be servable.
	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.Light, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("asset fetch status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestServeRenderBadRequests(t *testing.T) {
	s := newTestServer(t, stubTypesetter{})
	cases := []string{
		`not json`,
		`{"dialect":"mermaid","source":"x"}`,
		`{"dialect":"tikz","source":"  "}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestServeRenderFailure(t *testing.T) {
	s := newTestServer(t, stubTypesetter{fail: true})
	body := `{"dialect":"tikz","source":"\\broken"}`
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestServeAssetTraversalRejected(t *testing.T) {
	s := newTestServer(t, stubTypesetter{})
	for _, path := range []string{
		"/assets/..%2Fsecret.svg",
		"/assets/note.txt",
	} {
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code == http.StatusOK {
			t.Errorf("path %q should not be served", path)
		}
	}
}
