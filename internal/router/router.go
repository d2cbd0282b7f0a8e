package router

import (
	"blogsite/internal/config"
	"blogsite/internal/handlers"
	"blogsite/internal/middleware"
	"blogsite/internal/telemetry"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// formOverhead is room for the text fields of a post on top of its image
const formOverhead = 1 << 20

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	BlogHandler  *handlers.BlogHandler
	MediaHandler *handlers.MediaHandler
	Limiter      *middleware.IPRateLimiter
	WriteLimiter *middleware.IPRateLimiter // stricter, for form posts
	Tracer       trace.Tracer
	Metrics      *telemetry.Metrics
	Session      *middleware.Sessions
	CSRF         *middleware.CSRF
	CSP          *middleware.CSP
}

func NewRouter(deps RouterDependencies) http.Handler {
	appMux := http.NewServeMux()
	bh := deps.BlogHandler

	// static files
	fs := http.FileServer(http.Dir(deps.Cfg.App.StaticDir))
	appMux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	appMux.Handle("GET /media/{key}", deps.MediaHandler)

	writeStack := func(h http.Handler) http.Handler {
		return deps.WriteLimiter.Middleware(deps.Logger)(h)
	}

	// pages
	appMux.Handle("GET /{$}", bh.HandleRoot())
	appMux.Handle("GET /about", bh.HandleAbout())
	appMux.Handle("GET /blog", bh.HandleBlog())
	appMux.Handle("GET /blog/{id}", bh.HandleBlog())
	appMux.Handle("GET /posts", bh.HandlePosts())
	appMux.Handle("GET /post/{id}", bh.HandlePostJSON())
	appMux.Handle("GET /categories", bh.HandleCategories())

	// forms
	appMux.Handle("GET /posts/add", bh.HandleAddPostForm())
	appMux.Handle("POST /posts/add", writeStack(bh.HandleAddPost()))
	appMux.Handle("GET /posts/delete/{id}", writeStack(bh.HandleDeletePost()))
	appMux.Handle("GET /categories/add", bh.HandleAddCategoryForm())
	appMux.Handle("POST /categories/add", writeStack(bh.HandleAddCategory()))
	appMux.Handle("GET /categories/delete/{id}", writeStack(bh.HandleDeleteCategory()))

	appMux.Handle("/", bh.HandleNotFound())

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger, bh.Panic),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	} else {
		middlewareStack = append(middlewareStack, middleware.Logger(deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.CSP.Middleware(),
		deps.Limiter.Middleware(deps.Logger),
		deps.Session.Middleware(deps.Logger, deps.Tracer),
		// before CSRF, nosurf reads the form to find its token
		middleware.BodyLimit(deps.Cfg.HTTP.MaxUploadBytes+formOverhead, deps.Cfg.HTTP.MaxUploadBytes, bh.UploadTooLarge),
		deps.CSRF.Middleware(deps.Logger),
		middleware.Nav(),
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	rootMux.Handle("GET /metrics", bh.HandleMetrics())
	// lightweight for docker keepalive
	rootMux.Handle("GET /healthz", bh.HandleHealth())

	rootMux.Handle("/", appHandler)

	return rootMux
}
