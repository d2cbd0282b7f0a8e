package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type navKey struct{}

// NavState is what the layout needs to highlight the current page
type NavState struct {
	ActiveRoute     string
	ViewingCategory string
}

// Nav records the active route and the category being browsed on every request
func Nav() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := NavState{
				ActiveRoute:     ActiveRoute(r.URL.Path),
				ViewingCategory: r.URL.Query().Get("category"),
			}
			ctx := context.WithValue(r.Context(), navKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NavFrom returns the state stored by Nav, zero outside a request
func NavFrom(ctx context.Context) NavState {
	state, _ := ctx.Value(navKey{}).(NavState)
	return state
}

// ActiveRoute maps /blog/12 to /blog so detail pages light up their section,
// any other path is used as is without a trailing slash
func ActiveRoute(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 2 {
		if _, err := strconv.Atoi(segments[1]); err == nil {
			return "/" + segments[0]
		}
	}

	if trimmed := strings.TrimSuffix(path, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}
