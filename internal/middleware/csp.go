package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

type CSP struct {
	isProd          bool
	cspHeaderString string
}

// NewCSP builds the policy once. mediaBaseURL is added to img-src when
// feature images are served from another origin.
func NewCSP(isProd bool, mediaBaseURL string) *CSP {
	styleSources := []string{"https://fonts.googleapis.com"}
	imageSources := []string{}
	fontSources := []string{"https://fonts.gstatic.com"}

	if origin := originOf(mediaBaseURL); origin != "" && !slices.Contains(imageSources, origin) {
		imageSources = append(imageSources, origin)
	}

	cspHeader := "default-src 'self'; " +
		"script-src 'self'; " +
		fmt.Sprintf("style-src 'self' 'unsafe-inline' %s; ", strings.Join(styleSources, " ")) +
		strings.TrimSpace(fmt.Sprintf("img-src 'self' data: %s", strings.Join(imageSources, " "))) + "; " +
		fmt.Sprintf("font-src 'self' %s; ", strings.Join(fontSources, " ")) +
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"

	return &CSP{
		isProd:          isProd,
		cspHeaderString: cspHeader,
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (c *CSP) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", c.cspHeaderString)

			if c.isProd {
				w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
