package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/blog/internal/model"
)

// CookieName is the session cookie. Its value is Seal(strconv(user.ID)).
const CookieName = "user_id"

// contextKey is unexported so only this package can set or read the
// current user in a request context.
type contextKey string

const userKey contextKey = "user"

// UserFinder resolves a user ID to a user. It returns (nil, nil) when the
// user does not exist.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Sessions issues, clears and resolves the signed user_id cookie.
type Sessions struct {
	codec  *SecureCodec
	users  UserFinder
	logger *slog.Logger
}

func NewSessions(codec *SecureCodec, users UserFinder, logger *slog.Logger) *Sessions {
	return &Sessions{codec: codec, users: users, logger: logger}
}

// Login sets the session cookie for u.
//
// The cookie has no Max-Age: it lives until the browser session ends, the
// user logs out, or the server secret changes.
func (s *Sessions) Login(w http.ResponseWriter, u *model.User) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.codec.Seal(strconv.FormatInt(u.ID, 10)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout overwrites the session cookie with an empty value.
func (s *Sessions) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadUser is a middleware that resolves the current user on every request.
//
// FAIL-OPEN:
// A missing, malformed or tampered cookie, an ID that doesn't parse, or an ID
// with no matching user all mean the same thing: the request is anonymous.
// The request is never rejected here; handlers decide what anonymous users
// may do (see RequireUser).
func (s *Sessions) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.resolve(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser redirects anonymous requests to redirectTo. Mount it after
// LoadUser on routes that only make sense for a logged-in user.
func RequireUser(redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				http.Redirect(w, r, redirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the logged-in user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

func (s *Sessions) resolve(r *http.Request) *model.User {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	raw, err := s.codec.Unseal(cookie.Value)
	if err != nil {
		s.logger.Debug("ignoring session cookie with bad signature")
		return nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}

	u, err := s.users.FindByID(r.Context(), id)
	if err != nil {
		// A store failure must not take the page down; the user just
		// looks logged out for this request.
		s.logger.Warn("session user lookup failed",
			slog.Int64("userID", id),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return u
}
