// Package repository defines the storage interfaces the services depend on.
//
// Implementations live in subpackages (sqlstore). Services only ever see
// these interfaces, so their tests run against small in-memory fakes.
//
// Conventions shared by every implementation:
//   - a missing row is reported as apperror.ErrNotFound
//   - a unique-constraint violation is reported as apperror.ErrConflict
//   - every other driver error is wrapped with the store's prefix
package repository

import (
	"context"

	"github.com/sakif/blog/internal/model"
)

// ListOptions pages through a listing. A zero Limit means DefaultLimit.
type ListOptions struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalize clamps Limit into (0, MaxLimit] and Offset to >= 0.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type UserRepository interface {
	// Create inserts u and sets u.ID and u.CreatedAt.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
}

type PostRepository interface {
	// Create inserts p and sets p.ID, p.CreatedAt and p.LastModified.
	Create(ctx context.Context, p *model.Post) error
	// GetByID returns the post with its author name and likers filled in.
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	// ListRecent returns posts newest first, ties broken by higher ID first.
	ListRecent(ctx context.Context, opts ListOptions) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error)
	// UpdateContent replaces the body and bumps last_modified.
	UpdateContent(ctx context.Context, id int64, content string) error
	// Delete removes the post together with its comments and likers.
	Delete(ctx context.Context, id int64) error
	// ToggleLike adds userID to the post's likers if absent, removes it if
	// present, and recomputes the counter, all in one transaction.
	ToggleLike(ctx context.Context, postID, userID int64) (model.LikeResult, error)
}

type CommentRepository interface {
	// Upsert stores c as its author's comment on c.PostID. If the author
	// already commented there, the body is replaced and c takes the existing
	// ID and CreatedAt.
	Upsert(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	FindByPostAndAuthor(ctx context.Context, postID, authorID int64) (*model.Comment, error)
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
	UpdateBody(ctx context.Context, id, body string) error
	Delete(ctx context.Context, id string) error
}
