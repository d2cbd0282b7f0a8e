package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestCSRFRejectsPostWithoutToken(t *testing.T) {
	t.Parallel()

	var failed bool
	csrf := NewCSRF(false, func(w http.ResponseWriter, r *http.Request) {
		failed = true
		w.WriteHeader(http.StatusForbidden)
	})
	h := csrf.Middleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(CSRFToken(r)))
	}))

	// safe methods pass and get a token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/posts/add", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("GET got %d with token %q", rec.Code, rec.Body.String())
	}

	form := url.Values{"title": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "http://example.com/posts/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || !failed {
		t.Errorf("POST without token got %d, failure handler called %v", rec.Code, failed)
	}
}
