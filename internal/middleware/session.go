package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const flashKey = "flash"

type Sessions struct {
	Manager *scs.SessionManager
}

// NewSessionManager keeps sessions in the sessions table of db, or in
// process memory when db is nil
func NewSessionManager(ttl time.Duration, secure bool, db *sql.DB) *Sessions {
	sm := scs.New()

	sm.Lifetime = ttl
	if db != nil {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Cookie.Name = "session_id"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = true

	return &Sessions{Manager: sm}
}

func (s *Sessions) Middleware(logger *slog.Logger, tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware.Session")
			defer span.End()

			span.SetAttributes(attribute.String("session.cookie", s.Manager.Cookie.Name))

			s.Manager.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Flash stores a one-time message shown on the next rendered page
func (s *Sessions) Flash(ctx context.Context, msg string) {
	s.Manager.Put(ctx, flashKey, msg)
}

// PopFlash returns and clears the pending message
func (s *Sessions) PopFlash(ctx context.Context) string {
	return s.Manager.PopString(ctx, flashKey)
}
