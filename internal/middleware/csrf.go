package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

type CSRF struct {
	isProd bool
	// onFailure renders the rejection, plain text when nil
	onFailure http.HandlerFunc
}

func NewCSRF(isProd bool, onFailure http.HandlerFunc) *CSRF {
	return &CSRF{isProd: isProd, onFailure: onFailure}
}

func (c *CSRF) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		csrfHandler := nosurf.New(next)

		csrfHandler.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   c.isProd,
			SameSite: http.SameSiteLaxMode,
		})

		csrfHandler.SetFailureHandler(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.Warn("CSRF validation failed", "path", r.URL.Path, "ip", r.RemoteAddr, "reason", nosurf.Reason(r))
				if c.onFailure != nil {
					c.onFailure(w, r)
					return
				}
				http.Error(w, "invalid CSRF token", http.StatusForbidden)
			}))

		return csrfHandler
	}
}

// CSRFToken is the token forms must echo back in the csrf_token field
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}
