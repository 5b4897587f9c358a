package handler

// RESPONSE HELPERS:
// Every handler ends in one of three ways: render a page, redirect, or hand
// an error to respondError. Keeping those in one place means the mapping
// from error kind to page is defined exactly once.

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/view"
)

// maxFormBytes caps form bodies; posts are text only.
const maxFormBytes = 1 << 20

// render shows page with the current user filled in.
func (h *Blog) render(w http.ResponseWriter, r *http.Request, status int, page string, data view.Data) {
	data.User = currentUser(r)
	h.views.Render(w, status, page, data)
}

// redirect sends a 302 to url.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// currentUser is the logged-in user, or nil.
func currentUser(r *http.Request) *model.User {
	return auth.UserFromContext(r.Context())
}

// respondError turns a service error into what the visitor sees.
//
// ERROR MAPPING:
//
//	ErrUnauthenticated          → 302 /login
//	ErrNotFound                 → error page, 404
//	ErrForbidden, ErrSelfAction → error page, 200 (refused, not failed)
//	ErrConflict                 → error page, 409 (try again)
//	ErrValidation               → error page, 400 (forms handle their own)
//	anything else               → error page, 500, details only in the log
func (h *Blog) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	message := "Something went wrong. Please try again later."
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		redirect(w, r, "/login")
	case errors.Is(err, apperror.ErrNotFound):
		h.render(w, r, http.StatusNotFound, view.PageError, view.Data{Error: message})
	case errors.Is(err, apperror.ErrForbidden), errors.Is(err, apperror.ErrSelfAction):
		h.render(w, r, http.StatusOK, view.PageError, view.Data{Error: message})
	case errors.Is(err, apperror.ErrConflict):
		h.render(w, r, http.StatusConflict, view.PageError,
			view.Data{Error: "Someone else changed this at the same moment. Please try again."})
	case errors.Is(err, apperror.ErrValidation):
		h.render(w, r, http.StatusBadRequest, view.PageError, view.Data{Error: message})
	default:
		// NEVER show the raw error: it can contain SQL or file paths.
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.render(w, r, http.StatusInternalServerError, view.PageError,
			view.Data{Error: "Something went wrong. Please try again later."})
	}
}

// postID reads the {postID} route parameter. The route pattern only admits
// digits, so a parse failure means the number overflowed int64.
func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NotFound("post", raw)
	}
	return id, nil
}

// parseForm reads a urlencoded body of at most maxFormBytes.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperror.ValidationFailed("form", "The form could not be read.")
	}
	return nil
}
