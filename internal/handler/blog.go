// Package handler contains the blog's HTTP handlers.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the request (route params, form values)
// 2. Call a service with the current user as the actor
// 3. Render a page, redirect, or pass the error to respondError
//
// Authorization lives in the services; handlers never compare user IDs
// themselves. The one exception is RequireUser on routes that make no sense
// to an anonymous visitor, which redirects before the handler runs.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/view"
)

// Blog holds everything the handlers share. It is built once at startup and
// is safe for concurrent use: none of its fields change after construction.
type Blog struct {
	views    *view.Renderer
	sessions *auth.Sessions
	users    *service.UserService
	posts    *service.PostService
	comments *service.CommentService
	logger   *slog.Logger
}

func NewBlog(
	views *view.Renderer,
	sessions *auth.Sessions,
	users *service.UserService,
	posts *service.PostService,
	comments *service.CommentService,
	logger *slog.Logger,
) *Blog {
	return &Blog{
		views:    views,
		sessions: sessions,
		users:    users,
		posts:    posts,
		comments: comments,
		logger:   logger,
	}
}

// Routes registers every blog route on r. r must already run
// auth.Sessions.LoadUser so handlers can see the current user.
func (h *Blog) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		redirect(w, r, "/blog")
	})
	r.Get("/blog", h.HandleFront)
	r.Get("/blog/", h.HandleFront)

	// Accounts
	r.Get("/signup", h.HandleSignupForm)
	r.Post("/signup", h.HandleSignup)
	r.Get("/login", h.HandleLoginForm)
	r.Post("/login", h.HandleLogin)
	r.Get("/logout", h.HandleLogout)
	r.With(auth.RequireUser("/signup")).Get("/welcome", h.HandleWelcome)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser("/login"))
		r.Get("/welcome/myposts", h.HandleMyPosts)
		r.Get("/login/welcome", h.HandleMyPosts)
	})

	// Posts
	r.Route("/post", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser("/login"))
			r.Get("/newpost", h.HandleNewPostForm)
			r.Post("/newpost", h.HandleNewPost)
		})

		r.Route("/{postID:[0-9]+}", func(r chi.Router) {
			r.Get("/", h.HandlePermalink)
			r.Get("/likes", h.HandleToggleLike)
			r.Get("/editpost", h.HandleEditPostForm)
			r.Post("/editpost", h.HandleEditPost)
			r.Get("/deletepost", h.HandleDeletePostForm)
			r.Post("/deletepost", h.HandleDeletePost)

			// Comments
			r.Get("/comment", h.HandleCommentForm)
			r.Post("/comment", h.HandleComment)
			r.Route("/comment/{commentID}", func(r chi.Router) {
				r.Get("/", h.HandleViewComment)
				r.Post("/", h.HandleViewComment)
				r.Get("/editcomment", h.HandleEditCommentForm)
				r.Post("/editcomment", h.HandleEditComment)
				r.Get("/deletecomment", h.HandleDeleteCommentForm)
				r.Post("/deletecomment", h.HandleDeleteComment)
			})
		})
	})
}
