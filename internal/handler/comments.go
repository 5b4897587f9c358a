package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/view"
)

func commentURL(c *model.Comment) string {
	return "/post/" + strconv.FormatInt(c.PostID, 10) + "/comment/" + c.ID
}

// HandleCommentForm shows the comment form, prefilled with the user's
// existing comment on this post if there is one.
//
// HTTP: GET /post/{postID}/comment (logged in)
func (h *Blog) HandleCommentForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirect(w, r, "/login")
		return
	}
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	mine, err := h.comments.FindMine(r.Context(), user, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageComment, view.Data{Title: "Comment", Post: p, Comment: mine})
}

// HandleComment saves the user's comment, replacing any earlier one.
//
// HTTP: POST /post/{postID}/comment (logged in)
func (h *Blog) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	body := r.PostFormValue("comment")

	if _, err := h.comments.Create(r.Context(), currentUser(r), id, body); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.rerenderComment(w, r, view.PageComment, id, nil, body, err)
			return
		}
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/post/"+strconv.FormatInt(id, 10))
}

// HandleViewComment shows a single comment.
//
// HTTP: GET, POST /post/{postID}/comment/{commentID}
func (h *Blog) HandleViewComment(w http.ResponseWriter, r *http.Request) {
	p, c, err := h.loadComment(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageViewComment, view.Data{Title: "Comment", Post: p, Comment: c})
}

// HandleEditCommentForm shows the edit form to the comment's author.
//
// HTTP: GET /post/{postID}/comment/{commentID}/editcomment
func (h *Blog) HandleEditCommentForm(w http.ResponseWriter, r *http.Request) {
	p, c, err := h.loadOwnedComment(r, "edit")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageEditComment, view.Data{Title: "Edit comment", Post: p, Comment: c})
}

// HandleEditComment replaces the comment's body.
//
// HTTP: POST /post/{postID}/comment/{commentID}/editcomment
func (h *Blog) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	body := r.PostFormValue("comment")
	commentID := chi.URLParam(r, "commentID")

	c, err := h.comments.Edit(r.Context(), currentUser(r), id, commentID, body)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			existing, getErr := h.comments.Get(r.Context(), id, commentID)
			if getErr != nil {
				h.respondError(w, r, getErr)
				return
			}
			h.rerenderComment(w, r, view.PageEditComment, id, existing, body, err)
			return
		}
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, commentURL(c))
}

// HandleDeleteCommentForm asks the author to confirm.
//
// HTTP: GET /post/{postID}/comment/{commentID}/deletecomment
func (h *Blog) HandleDeleteCommentForm(w http.ResponseWriter, r *http.Request) {
	p, c, err := h.loadOwnedComment(r, "delete")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageDeleteComment, view.Data{Title: "Delete comment", Post: p, Comment: c})
}

// HandleDeleteComment deletes the comment.
//
// HTTP: POST /post/{postID}/comment/{commentID}/deletecomment
func (h *Blog) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.comments.Delete(r.Context(), currentUser(r), id, chi.URLParam(r, "commentID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/post/"+strconv.FormatInt(id, 10))
}

// loadComment fetches the post and a comment that must belong to it.
func (h *Blog) loadComment(r *http.Request) (*model.Post, *model.Comment, error) {
	id, err := postID(r)
	if err != nil {
		return nil, nil, err
	}
	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	c, err := h.comments.Get(r.Context(), id, chi.URLParam(r, "commentID"))
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// loadOwnedComment is loadComment restricted to the comment's author.
func (h *Blog) loadOwnedComment(r *http.Request, action string) (*model.Post, *model.Comment, error) {
	id, err := postID(r)
	if err != nil {
		return nil, nil, err
	}
	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	c, err := h.comments.GetOwned(r.Context(), currentUser(r), id, chi.URLParam(r, "commentID"), action)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// rerenderComment shows a comment form again with the rejected body and the
// validation message.
func (h *Blog) rerenderComment(w http.ResponseWriter, r *http.Request, page string, pid int64, c *model.Comment, body string, cause error) {
	p, err := h.posts.Get(r.Context(), pid)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, page, view.Data{
		Title:   "Comment",
		Post:    p,
		Comment: c,
		Form:    map[string]string{"comment": body},
		Error:   cause.Error(),
	})
}
