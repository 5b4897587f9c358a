package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"testing"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// =========================================================================
// IN-MEMORY REPOSITORIES
// =========================================================================
//
// Hand-written fakes for the three repository interfaces. They keep copies
// of what they store so tests cannot mutate state through returned pointers.
// Setting err makes every call fail, to exercise the store-failure paths.

var errStore = errors.New("store unavailable")

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	err    error
	// createConflict simulates losing the race for a name to another request.
	createConflict bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	if f.createConflict {
		return apperror.Conflict("user", u.Name)
	}
	for _, existing := range f.users {
		if existing.Name == u.Name {
			return apperror.Conflict("user", u.Name)
		}
	}
	f.nextID++
	u.ID = f.nextID
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByName(_ context.Context, name string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Name == name {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", name)
}

type fakePostRepo struct {
	posts  map[int64]*model.Post
	likers map[int64]map[int64]bool // post -> user -> liked
	nextID int64
	err    error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:  make(map[int64]*model.Post),
		likers: make(map[int64]map[int64]bool),
	}
}

func (f *fakePostRepo) Create(_ context.Context, p *model.Post) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	p.ID = f.nextID
	stored := *p
	f.posts[p.ID] = &stored
	f.likers[p.ID] = make(map[int64]bool)
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id int64) (*model.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	out := *p
	return &out, nil
}

func (f *fakePostRepo) ListRecent(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	all := f.sorted(func(*model.Post) bool { return true })
	if opts.Offset >= len(all) {
		return []model.Post{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (f *fakePostRepo) ListByAuthor(_ context.Context, authorID int64) ([]model.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(p *model.Post) bool { return p.AuthorID == authorID }), nil
}

func (f *fakePostRepo) sorted(keep func(*model.Post) bool) []model.Post {
	out := []model.Post{}
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePostRepo) UpdateContent(_ context.Context, id int64, content string) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	p.Content = content
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	delete(f.posts, id)
	delete(f.likers, id)
	return nil
}

func (f *fakePostRepo) ToggleLike(_ context.Context, postID, userID int64) (model.LikeResult, error) {
	if f.err != nil {
		return model.LikeResult{}, f.err
	}
	p, ok := f.posts[postID]
	if !ok {
		return model.LikeResult{}, apperror.NotFound("post", strconv.FormatInt(postID, 10))
	}
	if p.AuthorID == userID {
		return model.LikeResult{}, apperror.SelfActionForbidden("You can't like your own post.")
	}
	set := f.likers[postID]
	if set[userID] {
		delete(set, userID)
	} else {
		set[userID] = true
	}
	p.Likes = len(set)
	return model.LikeResult{Liked: set[userID], Likes: p.Likes}, nil
}

type fakeCommentRepo struct {
	comments map[string]*model.Comment
	nextID   int
	err      error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*model.Comment)}
}

func (f *fakeCommentRepo) Upsert(_ context.Context, c *model.Comment) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.comments {
		if existing.PostID == c.PostID && existing.AuthorID == c.AuthorID {
			existing.Body = c.Body
			*c = *existing
			return nil
		}
	}
	f.nextID++
	c.ID = fmt.Sprintf("comment-%d", f.nextID)
	stored := *c
	f.comments[c.ID] = &stored
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	out := *c
	return &out, nil
}

func (f *fakeCommentRepo) FindByPostAndAuthor(_ context.Context, postID, authorID int64) (*model.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.comments {
		if c.PostID == postID && c.AuthorID == authorID {
			out := *c
			return &out, nil
		}
	}
	return nil, apperror.NotFound("comment", "")
}

func (f *fakeCommentRepo) ListByPost(_ context.Context, postID int64) ([]model.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCommentRepo) UpdateBody(_ context.Context, id, body string) error {
	if f.err != nil {
		return f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return apperror.NotFound("comment", id)
	}
	c.Body = body
	return nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(f.comments, id)
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	return NewUserService(repo, auth.NewPasswordHasher(), testLogger()), repo
}

func newTestPostService(t *testing.T) (*PostService, *fakePostRepo) {
	t.Helper()
	repo := newFakePostRepo()
	return NewPostService(repo, testLogger()), repo
}

func newTestCommentService(t *testing.T) (*CommentService, *fakeCommentRepo, *fakePostRepo) {
	t.Helper()
	comments := newFakeCommentRepo()
	posts := newFakePostRepo()
	return NewCommentService(comments, posts, testLogger()), comments, posts
}

var (
	alice = &model.User{ID: 1, Name: "alice"}
	bob   = &model.User{ID: 2, Name: "bob"}
)
