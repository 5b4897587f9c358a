package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/database"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
	"github.com/sakif/blog/internal/repository/sqlstore"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/view"
)

// testApp is the whole blog wired against an in-memory SQLite database.
// Tests drive it over HTTP and inspect the stores directly.
type testApp struct {
	t        *testing.T
	router   http.Handler
	posts    *sqlstore.PostStore
	comments *sqlstore.CommentStore
	codec    *auth.SecureCodec
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.OpenAndMigrate(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	codec, err := auth.NewSecureCodec("handler-test-secret-0123456789")
	require.NoError(t, err)
	views, err := view.New(logger)
	require.NoError(t, err)

	userStore := sqlstore.NewUserStore(db)
	postStore := sqlstore.NewPostStore(db)
	commentStore := sqlstore.NewCommentStore(db)

	users := service.NewUserService(userStore, auth.NewPasswordHasher(), logger)
	posts := service.NewPostService(postStore, logger)
	comments := service.NewCommentService(commentStore, postStore, logger)
	sessions := auth.NewSessions(codec, users, logger)

	r := chi.NewRouter()
	r.Use(sessions.LoadUser)
	NewBlog(views, sessions, users, posts, comments, logger).Routes(r)

	return &testApp{t: t, router: r, posts: postStore, comments: commentStore, codec: codec}
}

// do sends a request. A non-nil form makes it a urlencoded POST.
func (a *testApp) do(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, path, nil, cookie)
}

func (a *testApp) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return a.do(http.MethodPost, path, form, cookie)
}

// signup registers name with password "secret" and returns the session cookie.
func (a *testApp) signup(name string) *http.Cookie {
	a.t.Helper()
	rr := a.post("/signup", url.Values{
		"username": {name},
		"password": {"secret"},
		"verify":   {"secret"},
	}, nil)
	require.Equal(a.t, http.StatusFound, rr.Code, "signup %s: %s", name, rr.Body.String())
	c := sessionCookie(rr)
	require.NotNil(a.t, c, "signup must set the session cookie")
	return c
}

// newPost creates a post as cookie's user and returns its ID.
func (a *testApp) newPost(cookie *http.Cookie, subject, content string) int64 {
	a.t.Helper()
	rr := a.post("/post/newpost", url.Values{"subject": {subject}, "content": {content}}, cookie)
	require.Equal(a.t, http.StatusFound, rr.Code)
	loc := rr.Header().Get("Location")
	require.True(a.t, strings.HasPrefix(loc, "/post/"), "redirect to permalink, got %q", loc)
	id, err := strconv.ParseInt(strings.TrimPrefix(loc, "/post/"), 10, 64)
	require.NoError(a.t, err)
	return id
}

func (a *testApp) getPost(id int64) *model.Post {
	a.t.Helper()
	p, err := a.posts.GetByID(context.Background(), id)
	require.NoError(a.t, err)
	return p
}

func (a *testApp) countPosts() int {
	a.t.Helper()
	posts, err := a.posts.ListRecent(context.Background(), repository.ListOptions{Limit: repository.MaxLimit})
	require.NoError(a.t, err)
	return len(posts)
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func postPath(id int64, suffix string) string {
	return "/post/" + strconv.FormatInt(id, 10) + suffix
}
