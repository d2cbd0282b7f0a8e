package handlers

import (
	"blogsite/internal/blog"
	"blogsite/internal/components"
	"blogsite/internal/content"
	"errors"
	"net/http"
)

func (h *BlogHandler) HandleAddPostForm() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categories := h.Service.Categories(r.Context())
		form := components.PostForm{Published: true}

		h.render(w, r, http.StatusOK, components.AddPostPage(h.newCommonData(r), form, categories))
	})
}

func (h *BlogHandler) HandleAddPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// room for the text fields on top of the image
		limit := h.MaxUploadBytes + 1<<20
		if r.ContentLength > limit {
			h.UploadTooLarge(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.UploadTooLarge(w, r)
				return
			}
			// a plain urlencoded form has no file, that is fine
			if !errors.Is(err, http.ErrNotMultipart) {
				h.renderError(w, r, http.StatusBadRequest, "Bad Request", "The form could not be read.")
				return
			}
		}
		defer func() {
			if r.MultipartForm != nil {
				r.MultipartForm.RemoveAll()
			}
		}()

		in := blog.NewPost{
			Title:     r.FormValue("title"),
			Body:      r.FormValue("body"),
			Category:  r.FormValue("category"),
			Published: r.FormValue("published"),
		}

		file, header, err := r.FormFile("featureImage")
		switch {
		case err == nil:
			defer file.Close()
			in.Image = file
			in.ImageName = header.Filename
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			// no attachment
		default:
			h.renderError(w, r, http.StatusBadRequest, "Bad Request", "The feature image could not be read.")
			return
		}

		post, err := h.Service.CreatePost(r.Context(), in)
		switch {
		case err == nil:
			h.logger(r).Info("post created", "id", post.ID, "title", post.Title)
			h.flash(r, "Post added")
			http.Redirect(w, r, "/posts", http.StatusSeeOther)
		case errors.Is(err, content.ErrUploadTooLarge):
			h.UploadTooLarge(w, r)
		case errors.Is(err, blog.ErrUpload):
			h.BadGateway(w, r, err)
		case errors.Is(err, blog.ErrTitleRequired):
			h.rerenderPostForm(w, r, in, "Title is required.")
		default:
			h.InternalError(w, r, err)
		}
	})
}

func (h *BlogHandler) rerenderPostForm(w http.ResponseWriter, r *http.Request, in blog.NewPost, msg string) {
	form := components.PostForm{
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
		Published: in.Published != "",
		Error:     msg,
	}
	categories := h.Service.Categories(r.Context())
	h.render(w, r, http.StatusUnprocessableEntity, components.AddPostPage(h.newCommonData(r), form, categories))
}

// UploadTooLarge answers 413 for bodies over the upload limit
func (h *BlogHandler) UploadTooLarge(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusRequestEntityTooLarge, "Upload Too Large", "The feature image is larger than the server accepts.")
}
