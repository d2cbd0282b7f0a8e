package handlers

import (
	"blogsite/internal/blog"
	"blogsite/internal/components"
	"blogsite/internal/storage"
	"errors"
	"net/http"
)

func (h *BlogHandler) HandleCategories() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := h.Service.CategoriesView(r.Context())
		h.render(w, r, http.StatusOK, components.CategoriesPage(h.newCommonData(r), view))
	})
}

func (h *BlogHandler) HandleAddCategoryForm() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, components.AddCategoryPage(h.newCommonData(r), "", ""))
	})
}

func (h *BlogHandler) HandleAddCategory() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.FormValue("category")

		_, err := h.Service.AddCategory(r.Context(), name)
		switch {
		case err == nil:
			h.flash(r, "Category added")
			http.Redirect(w, r, "/categories", http.StatusSeeOther)
		case errors.Is(err, blog.ErrCategoryNameRequired):
			h.render(w, r, http.StatusUnprocessableEntity,
				components.AddCategoryPage(h.newCommonData(r), name, "Category name is required."))
		case errors.Is(err, storage.ErrUniqueViolation):
			h.render(w, r, http.StatusUnprocessableEntity,
				components.AddCategoryPage(h.newCommonData(r), name, "That category already exists."))
		default:
			h.InternalError(w, r, err)
		}
	})
}

func (h *BlogHandler) HandleDeleteCategory() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Service.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.NotFound(w, r)
				return
			}
			h.InternalError(w, r, err)
			return
		}

		h.flash(r, "Category deleted")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
	})
}
