package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/view"
)

const postsPerPage = 10

// HandleFront lists posts newest first, postsPerPage at a time.
//
// HTTP: GET /blog?page=N
func (h *Blog) HandleFront(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	posts, err := h.posts.List(r.Context(), postsPerPage, (page-1)*postsPerPage)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	data := view.Data{Posts: posts}
	if page > 1 {
		data.PrevPage = page - 1
	}
	if len(posts) == postsPerPage {
		data.NextPage = page + 1
	}
	h.render(w, r, http.StatusOK, view.PageFront, data)
}

// HandlePermalink shows one post with its likers and comments.
//
// HTTP: GET /post/{postID}
func (h *Blog) HandlePermalink(w http.ResponseWriter, r *http.Request) {
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
	comments, err := h.comments.ListByPost(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PagePermalink, view.Data{Title: p.Subject, Post: p, Comments: comments})
}

// HandleNewPostForm shows an empty post form.
//
// HTTP: GET /post/newpost (logged in)
func (h *Blog) HandleNewPostForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageNewPost, view.Data{Title: "New post"})
}

// HandleNewPost creates a post and redirects to its permalink.
//
// HTTP: POST /post/newpost (logged in)
func (h *Blog) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	subject := r.PostFormValue("subject")
	content := r.PostFormValue("content")

	p, err := h.posts.Create(r.Context(), currentUser(r), subject, content)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.render(w, r, http.StatusOK, view.PageNewPost, view.Data{
				Title: "New post",
				Form:  map[string]string{"subject": subject, "content": content},
				Error: err.Error(),
			})
			return
		}
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/post/"+strconv.FormatInt(p.ID, 10))
}

// HandleEditPostForm shows the edit form to the post's author.
//
// HTTP: GET /post/{postID}/editpost
func (h *Blog) HandleEditPostForm(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.posts.GetOwned(r.Context(), currentUser(r), id, "edit")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageEditPost, view.Data{Title: "Edit post", Post: p})
}

// HandleEditPost replaces the post's content.
//
// HTTP: POST /post/{postID}/editpost
func (h *Blog) HandleEditPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	content := r.PostFormValue("content")

	if _, err := h.posts.Edit(r.Context(), currentUser(r), id, content); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p, getErr := h.posts.Get(r.Context(), id)
			if getErr != nil {
				h.respondError(w, r, getErr)
				return
			}
			h.render(w, r, http.StatusOK, view.PageEditPost, view.Data{
				Title: "Edit post",
				Post:  p,
				Form:  map[string]string{"content": content},
				Error: err.Error(),
			})
			return
		}
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/post/"+strconv.FormatInt(id, 10))
}

// HandleDeletePostForm asks the author to confirm.
//
// HTTP: GET /post/{postID}/deletepost
func (h *Blog) HandleDeletePostForm(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.posts.GetOwned(r.Context(), currentUser(r), id, "delete")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageDeletePost, view.Data{Title: "Delete post", Post: p})
}

// HandleDeletePost deletes the post with its comments and likes.
//
// HTTP: POST /post/{postID}/deletepost
func (h *Blog) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.posts.Delete(r.Context(), currentUser(r), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/blog")
}

// HandleToggleLike likes or unlikes the post for the current user.
//
// HTTP: GET /post/{postID}/likes
//
// A GET that mutates state is kept for link compatibility: the like button
// is a plain link.
func (h *Blog) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.posts.ToggleLike(r.Context(), currentUser(r), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	redirect(w, r, "/post/"+strconv.FormatInt(id, 10))
}
