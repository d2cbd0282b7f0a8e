package middleware

import (
	"errors"
	"io"
	"net/http"
)

// BodyLimit caps request bodies and parses form posts before anything else
// reads them. nosurf looks for its token in the form, so without this the
// form would be parsed with the default memory limit and no size cap at all.
// Requests over limit are handed to onTooLarge.
func BodyLimit(limit, maxMemory int64, onTooLarge http.HandlerFunc) Middleware {
	if onTooLarge == nil {
		onTooLarge = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				onTooLarge(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			// files beyond maxMemory spill to disk, clean them up whoever parsed them
			defer func() {
				if r.MultipartForm != nil {
					r.MultipartForm.RemoveAll()
				}
			}()

			if err := r.ParseMultipartForm(maxMemory); err != nil && exceeded(r.Body, err) {
				onTooLarge(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// exceeded reports whether err, or the body itself, says the limit was hit.
// A MaxBytesReader keeps returning its error once tripped, so the body is
// asked again when the parser did not wrap it.
func exceeded(body io.Reader, err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	_, err = body.Read(make([]byte, 1))
	return errors.As(err, &tooLarge)
}
