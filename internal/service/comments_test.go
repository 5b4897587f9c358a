package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
)

// seedPost stores a post by alice directly in the fake.
func seedPost(t *testing.T, posts *fakePostRepo) *model.Post {
	t.Helper()
	p := &model.Post{Subject: "Hi", Content: "Hello", AuthorID: alice.ID}
	require.NoError(t, posts.Create(context.Background(), p))
	return p
}

func TestCommentCreate(t *testing.T) {
	svc, comments, posts := newTestCommentService(t)
	p := seedPost(t, posts)

	c, err := svc.Create(context.Background(), bob, p.ID, "nice post")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, p.ID, c.PostID)
	assert.Equal(t, bob.ID, c.AuthorID)
	assert.Len(t, comments.comments, 1)
}

func TestCommentCreate_ReplacesOwnComment(t *testing.T) {
	svc, comments, posts := newTestCommentService(t)
	p := seedPost(t, posts)
	ctx := context.Background()

	first, err := svc.Create(ctx, bob, p.ID, "first")
	require.NoError(t, err)
	second, err := svc.Create(ctx, bob, p.ID, "second")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "second", second.Body)
	assert.Len(t, comments.comments, 1)
}

func TestCommentCreate_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		actor   *model.User
		postID  int64
		body    string
		wantErr error
	}{
		{"anonymous", nil, 1, "hi", apperror.ErrUnauthenticated},
		{"missing post", bob, 99, "hi", apperror.ErrNotFound},
		{"empty body", bob, 1, "  ", apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, comments, posts := newTestCommentService(t)
			seedPost(t, posts) // ID 1

			_, err := svc.Create(context.Background(), tt.actor, tt.postID, tt.body)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, comments.comments)
		})
	}
}

func TestCommentGet_MustBelongToPost(t *testing.T) {
	svc, _, posts := newTestCommentService(t)
	ctx := context.Background()
	p1 := seedPost(t, posts)
	p2 := seedPost(t, posts)

	c, err := svc.Create(ctx, bob, p1.ID, "on p1")
	require.NoError(t, err)

	got, err := svc.Get(ctx, p1.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Get(ctx, p2.ID, c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCommentFindMine(t *testing.T) {
	svc, _, posts := newTestCommentService(t)
	ctx := context.Background()
	p := seedPost(t, posts)

	got, err := svc.FindMine(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	c, err := svc.Create(ctx, bob, p.ID, "mine")
	require.NoError(t, err)

	got, err = svc.FindMine(ctx, bob, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)

	got, err = svc.FindMine(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommentEdit(t *testing.T) {
	svc, comments, posts := newTestCommentService(t)
	ctx := context.Background()
	p := seedPost(t, posts)
	c, err := svc.Create(ctx, bob, p.ID, "before")
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, bob, p.ID, c.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", edited.Body)

	stored := comments.comments[c.ID]
	assert.Equal(t, "after", stored.Body)
	assert.Equal(t, bob.ID, stored.AuthorID, "author unchanged")
	assert.Equal(t, p.ID, stored.PostID, "post unchanged")
}

func TestCommentEdit_Rejected(t *testing.T) {
	svc, comments, posts := newTestCommentService(t)
	ctx := context.Background()
	p := seedPost(t, posts)
	c, err := svc.Create(ctx, bob, p.ID, "original")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, alice, p.ID, c.ID, "hijacked")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Edit(ctx, nil, p.ID, c.ID, "hijacked")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = svc.Edit(ctx, bob, p.ID, c.ID, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Edit(ctx, bob, p.ID, "missing", "x")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, "original", comments.comments[c.ID].Body)
}

func TestCommentDelete(t *testing.T) {
	svc, comments, posts := newTestCommentService(t)
	ctx := context.Background()
	p := seedPost(t, posts)
	c, err := svc.Create(ctx, bob, p.ID, "bye")
	require.NoError(t, err)

	err = svc.Delete(ctx, alice, p.ID, c.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden, "post author cannot delete other people's comments")
	assert.Contains(t, comments.comments, c.ID)

	require.NoError(t, svc.Delete(ctx, bob, p.ID, c.ID))
	assert.NotContains(t, comments.comments, c.ID)
}

func TestCommentListByPost(t *testing.T) {
	svc, _, posts := newTestCommentService(t)
	ctx := context.Background()
	p := seedPost(t, posts)
	_, err := svc.Create(ctx, bob, p.ID, "b")
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, p.ID, "a")
	require.NoError(t, err)

	all, err := svc.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
