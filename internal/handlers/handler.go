package handlers

import (
	"blogsite/internal/blog"
	"blogsite/internal/components"
	"blogsite/internal/middleware"
	"blogsite/internal/storage"
	"context"
	"log/slog"
	"net/http"
	"time"
)

// BlogService is everything the page handlers ask of the blog
type BlogService interface {
	BlogView(ctx context.Context, q blog.BlogQuery) blog.BlogView
	PostsView(ctx context.Context, q blog.PostsQuery) blog.PostsView
	CategoriesView(ctx context.Context) blog.CategoriesView
	Categories(ctx context.Context) []*storage.Category
	Post(ctx context.Context, id string) (*storage.Post, error)
	CreatePost(ctx context.Context, in blog.NewPost) (*storage.Post, error)
	AddCategory(ctx context.Context, name string) (*storage.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	DeletePost(ctx context.Context, id string) error
}

// BlogHandler holds the state
type BlogHandler struct {
	Title          string
	Service        BlogService
	Sessions       *middleware.Sessions
	Markdown       components.BodyRenderer
	Logger         *slog.Logger
	MaxUploadBytes int64
}

// NewBlogHandler creates the controller
func NewBlogHandler(title string, service BlogService, sessions *middleware.Sessions, md components.BodyRenderer, maxUpload int64, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		Title:          title,
		Service:        service,
		Sessions:       sessions,
		Markdown:       md,
		Logger:         logger,
		MaxUploadBytes: maxUpload,
	}
}

// baseCommonData skips the flash, the session may not be loaded
func (h *BlogHandler) baseCommonData(r *http.Request) components.CommonData {
	nav := middleware.NavFrom(r.Context())
	return components.CommonData{
		SiteName:        h.Title,
		ActiveRoute:     nav.ActiveRoute,
		ViewingCategory: nav.ViewingCategory,
		CSRFToken:       middleware.CSRFToken(r),
		Year:            time.Now().Year(),
	}
}

func (h *BlogHandler) newCommonData(r *http.Request) components.CommonData {
	common := h.baseCommonData(r)
	if h.Sessions != nil {
		common.Flash = h.Sessions.PopFlash(r.Context())
	}
	return common
}

func (h *BlogHandler) flash(r *http.Request, msg string) {
	if h.Sessions != nil {
		h.Sessions.Flash(r.Context(), msg)
	}
}

func (h *BlogHandler) logger(r *http.Request) *slog.Logger {
	return middleware.LoggerFrom(r.Context(), h.Logger)
}
