package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vexsearch/vexdb/internal/config"
	"github.com/vexsearch/vexdb/internal/logging"
)

const testAuthToken = "test-token"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AuthToken = testAuthToken
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) *Router {
	t.Helper()
	return NewRouterWithLogger(cfg, logging.Discard())
}

func addAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+testAuthToken)
}

func (r *Router) ServeAuthed(w http.ResponseWriter, req *http.Request) {
	if req.Header.Get("Authorization") == "" {
		addAuth(req)
	}
	r.ServeHTTP(w, req)
}

// post sends an authenticated POST and returns the recorder.
func post(r *Router, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	rec := httptest.NewRecorder()
	r.ServeAuthed(rec, req)
	return rec
}

func postJSON(r *Router, path, body string) *httptest.ResponseRecorder {
	return post(r, path, strings.NewReader(body))
}
