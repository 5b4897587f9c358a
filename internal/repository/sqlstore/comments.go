package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.CommentRepository = (*CommentStore)(nil)

const selectComments = `
	SELECT c.id, c.post_id, c.author_id, u.name AS author_name,
	       c.body, c.created_at, c.last_modified
	FROM comments c
	JOIN users u ON u.id = c.author_id`

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Upsert writes c as its author's only comment on the post.
//
// It is a single INSERT ... ON CONFLICT statement, so two concurrent writes
// by the same author cannot produce two rows: the second one replaces the
// body of the first and keeps its ID. After Upsert, c reflects the stored row.
func (s *CommentStore) Upsert(ctx context.Context, c *model.Comment) error {
	t := now()
	var id string
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO comments (id, post_id, author_id, body, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (post_id, author_id)
		 DO UPDATE SET body = excluded.body, last_modified = excluded.last_modified
		 RETURNING id`),
		xid.New().String(), c.PostID, c.AuthorID, c.Body, t, t,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("sqlstore: saving comment on post %d: %w", c.PostID, err)
	}

	stored, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := s.db.GetContext(ctx, &c, s.db.Rebind(selectComments+` WHERE c.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlstore: getting comment %s: %w", id, err)
	}
	return &c, nil
}

func (s *CommentStore) FindByPostAndAuthor(ctx context.Context, postID, authorID int64) (*model.Comment, error) {
	var c model.Comment
	err := s.db.GetContext(ctx, &c, s.db.Rebind(
		selectComments+` WHERE c.post_id = ? AND c.author_id = ?`), postID, authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment",
				strconv.FormatInt(postID, 10)+"/"+strconv.FormatInt(authorID, 10))
		}
		return nil, fmt.Errorf("sqlstore: finding comment on post %d: %w", postID, err)
	}
	return &c, nil
}

// ListByPost returns the post's comments oldest first.
func (s *CommentStore) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := s.db.SelectContext(ctx, &comments, s.db.Rebind(
		selectComments+` WHERE c.post_id = ? ORDER BY c.created_at, c.id`), postID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// UpdateBody replaces the text. Post and author are never touched.
func (s *CommentStore) UpdateBody(ctx context.Context, id, body string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE comments SET body = ?, last_modified = ? WHERE id = ?`), body, now(), id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating comment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: updating comment %s: %w", id, err)
	}
	return requireAffected(n, "comment", id)
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %s: %w", id, err)
	}
	return requireAffected(n, "comment", id)
}
