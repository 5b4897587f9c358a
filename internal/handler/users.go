package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/view"
)

// HandleSignupForm shows the registration form.
//
// HTTP: GET /signup
func (h *Blog) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageSignup, view.Data{Title: "Signup"})
}

// HandleSignup registers a user and logs them in.
//
// HTTP: POST /signup
//
// TWO STAGES:
// Field checks run first and re-render the form with one message per bad
// field. Only a form that passes them reaches Register, which checks the
// name is free. Passwords are never echoed back into the form.
func (h *Blog) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	form := service.SignupForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Verify:   r.PostFormValue("verify"),
		Email:    r.PostFormValue("email"),
	}
	echo := map[string]string{"username": form.Username, "email": form.Email}

	if errs := h.users.ValidateSignup(form); errs.Any() {
		h.render(w, r, http.StatusOK, view.PageSignup, view.Data{
			Title: "Signup",
			Form:  echo,
			Errors: map[string]string{
				"username": errs.Username,
				"password": errs.Password,
				"verify":   errs.Verify,
				"email":    errs.Email,
			},
		})
		return
	}

	u, err := h.users.Register(r.Context(), form)
	if err != nil {
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr) {
			h.render(w, r, http.StatusOK, view.PageSignup, view.Data{
				Title:  "Signup",
				Form:   echo,
				Errors: map[string]string{appErr.Field: appErr.Message},
			})
			return
		}
		h.respondError(w, r, err)
		return
	}

	h.sessions.Login(w, u)
	redirect(w, r, "/blog")
}

// HandleLoginForm shows the login form.
//
// HTTP: GET /login
func (h *Blog) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, view.Data{Title: "Login"})
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /login
//
// A wrong password and an unknown user get the same message.
func (h *Blog) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.respondError(w, r, err)
		return
	}
	name := r.PostFormValue("username")

	u, err := h.users.Authenticate(r.Context(), name, r.PostFormValue("password"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if u == nil {
		h.render(w, r, http.StatusOK, view.PageLogin, view.Data{
			Title: "Login",
			Form:  map[string]string{"username": name},
			Error: service.MsgInvalidLogin,
		})
		return
	}

	h.sessions.Login(w, u)
	redirect(w, r, "/welcome")
}

// HandleLogout clears the session.
//
// HTTP: GET /logout
func (h *Blog) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	redirect(w, r, "/signup")
}

// HandleWelcome is the profile landing page.
//
// HTTP: GET /welcome (logged in)
func (h *Blog) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageWelcome, view.Data{Title: "Welcome"})
}

// HandleMyPosts lists the current user's posts.
//
// HTTP: GET /welcome/myposts, GET /login/welcome (logged in)
func (h *Blog) HandleMyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByAuthor(r.Context(), currentUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageMyPosts, view.Data{Title: "My posts", Posts: posts})
}
