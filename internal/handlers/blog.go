package handlers

import (
	"blogsite/internal/blog"
	"blogsite/internal/components"
	"blogsite/internal/storage"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/a-h/templ"
)

func (h *BlogHandler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger(r).Warn("rendering page", "path", r.URL.Path, "err", err)
	}
}

func (h *BlogHandler) HandleRoot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blog", http.StatusSeeOther)
	})
}

func (h *BlogHandler) HandleAbout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, components.AboutPage(h.newCommonData(r)))
	})
}

// HandleBlog serves both /blog and /blog/{id}
func (h *BlogHandler) HandleBlog() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := h.Service.BlogView(r.Context(), blog.BlogQuery{
			Category: r.URL.Query().Get("category"),
			PostID:   r.PathValue("id"),
		})

		h.render(w, r, http.StatusOK, components.BlogPage(h.newCommonData(r), view, h.Markdown))
	})
}

func (h *BlogHandler) HandlePosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := blog.PostsQuery{
			Category: r.URL.Query().Get("category"),
			MinDate:  r.URL.Query().Get("minDate"),
		}
		view := h.Service.PostsView(r.Context(), query)
		categories := h.Service.Categories(r.Context())

		h.render(w, r, http.StatusOK, components.PostsPage(h.newCommonData(r), view, query, categories))
	})
}

// HandlePostJSON serves a single post for scripts and feeds
func (h *BlogHandler) HandlePostJSON() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		post, err := h.Service.Post(r.Context(), r.PathValue("id"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrNotFound) {
				status = http.StatusNotFound
			} else {
				h.logger(r).Error("loading post", "id", r.PathValue("id"), "err", err)
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
			return
		}

		json.NewEncoder(w).Encode(post)
	})
}

func (h *BlogHandler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Service.DeletePost(r.Context(), r.PathValue("id")); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.NotFound(w, r)
				return
			}
			h.InternalError(w, r, err)
			return
		}

		h.flash(r, "Post deleted")
		http.Redirect(w, r, "/posts", http.StatusSeeOther)
	})
}

// HandleNotFound catches every unmatched route
func (h *BlogHandler) HandleNotFound() http.Handler {
	return http.HandlerFunc(h.NotFound)
}
