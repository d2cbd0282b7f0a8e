package handlers

import (
	"blogsite/internal/components"
	"net/http"
)

// InternalError handles 500 errors
func (h *BlogHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Error("500 internal server error", "err", err, "path", r.URL.Path)
	h.renderError(w, r, http.StatusInternalServerError,
		"Internal Server Error",
		"Something went wrong on our end. We've logged the error and will look into it.",
	)
}

// BadGateway reports a failure of the media host, the upstream error is shown as is
func (h *BlogHandler) BadGateway(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Error("502 bad gateway", "err", err, "path", r.URL.Path)
	h.renderError(w, r, http.StatusBadGateway, "Upload Failed", err.Error())
}

// NotFound serves the custom 404 page
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger(r).Warn("404 not found", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
	h.renderError(w, r, http.StatusNotFound,
		"Page Not Found",
		"The page you are looking for doesn't exist or has been moved.",
	)
}

// Forbidden is used when a form comes back without a valid CSRF token
func (h *BlogHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderErrorWith(w, r, h.baseCommonData(r), http.StatusForbidden,
		"Forbidden",
		"The form has expired. Go back, reload the page and try again.",
	)
}

// Panic renders the 500 page after a recovered panic, outside of any session
func (h *BlogHandler) Panic(w http.ResponseWriter, r *http.Request) {
	h.renderErrorWith(w, r, h.baseCommonData(r), http.StatusInternalServerError,
		"Internal Server Error",
		"Something went wrong on our end. We've logged the error and will look into it.",
	)
}

// renderError writes a header code wraps the call to the ErrorPage component with common data
func (h *BlogHandler) renderError(w http.ResponseWriter, r *http.Request, code int, title, message string) {
	h.renderErrorWith(w, r, h.newCommonData(r), code, title, message)
}

func (h *BlogHandler) renderErrorWith(w http.ResponseWriter, r *http.Request, common components.CommonData, code int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := components.ErrorPage(common, code, title, message).Render(r.Context(), w); err != nil {
		h.logger(r).Warn("rendering error page", "err", err)
	}
}
