package middleware

import (
	"blogsite/internal/telemetry"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "first,second,handler" {
		t.Errorf("order = %s", got)
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		Recover(discardLogger(), nil)(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("custom page", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		onPanic := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "sorry")
		}
		Recover(discardLogger(), onPanic)(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError || rec.Body.String() != "sorry" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("after headers", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		partial := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			panic("late")
		})
		Recover(discardLogger(), nil)(partial).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("status should stay as written, got %d", rec.Code)
		}
	})
}

func TestCSPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prod     bool
		media    string
		wantImg  string
		wantHSTS bool
	}{
		{name: "local media", media: "/media/", wantImg: "img-src 'self' data:;"},
		{name: "remote media", prod: true, media: "https://cdn.example.com/blog/", wantImg: "img-src 'self' data: https://cdn.example.com;", wantHSTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h := NewCSP(tt.prod, tt.media).Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			csp := rec.Header().Get("Content-Security-Policy")
			if !strings.Contains(csp, tt.wantImg) {
				t.Errorf("csp %q missing %q", csp, tt.wantImg)
			}
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("hsts present = %v, want %v", got, tt.wantHSTS)
			}
			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Errorf("missing X-Frame-Options")
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		limiter := NewIPRateLimiter(ctx, 1, 2, false, telemetry.NewNoopMetrics())
		h := limiter.Middleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		do := func(remote string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/blog", nil)
			req.RemoteAddr = remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		for i := range 2 {
			if rec := do("203.0.113.1:1000"); rec.Code != http.StatusOK {
				t.Fatalf("request %d within burst got %d", i, rec.Code)
			}
		}
		rec := do("203.0.113.1:1000")
		if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
			t.Errorf("expected 429 with Retry-After, got %d", rec.Code)
		}
		// other clients have their own bucket
		if rec := do("203.0.113.2:1000"); rec.Code != http.StatusOK {
			t.Errorf("second client got %d", rec.Code)
		}
		if rec := do("garbage"); rec.Code != http.StatusBadRequest {
			t.Errorf("invalid address got %d", rec.Code)
		}

		time.Sleep(time.Second)
		if rec := do("203.0.113.1:1000"); rec.Code != http.StatusOK {
			t.Errorf("bucket should refill after a second, got %d", rec.Code)
		}

		if n := limiter.tracked(); n != 2 {
			t.Fatalf("tracking %d clients, want 2", n)
		}
		time.Sleep(inactiveLimit + cleanupFrequency)
		synctest.Wait()
		if n := limiter.tracked(); n != 0 {
			t.Errorf("idle clients should be dropped, still tracking %d", n)
		}
	})
}

func TestObservabilitySetsRequestID(t *testing.T) {
	t.Parallel()

	var scoped *slog.Logger
	h := Observability(tracenoop.NewTracerProvider().Tracer(""), telemetry.NewNoopMetrics(), discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped = LoggerFrom(r.Context(), nil)
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID")
	}
	if scoped == nil {
		t.Errorf("request logger not stored in context")
	}
}
