package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.PostRepository = (*PostStore)(nil)

// selectPosts joins in the author's name for display.
const selectPosts = `
	SELECT p.id, p.subject, p.content, p.author_id, u.name AS author_name,
	       p.likes, p.created_at, p.last_modified
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// Newest first. Posts created in the same instant fall back to ID order so
// listings are deterministic.
const orderPosts = ` ORDER BY p.created_at DESC, p.id DESC`

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts p with zero likes.
func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	t := now()
	p.CreatedAt = t
	p.LastModified = t
	p.Likes = 0
	p.Likers = model.LikerSet{}

	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO posts (subject, content, author_id, likes, created_at, last_modified)
		 VALUES (?, ?, ?, 0, ?, ?)
		 RETURNING id`),
		p.Subject, p.Content, p.AuthorID, p.CreatedAt, p.LastModified,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: creating post: %w", err)
	}
	return nil
}

// GetByID returns the post with AuthorName and Likers filled in.
func (s *PostStore) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post
	err := s.db.GetContext(ctx, &p, s.db.Rebind(selectPosts+` WHERE p.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting post %d: %w", id, err)
	}

	var names []string
	err = s.db.SelectContext(ctx, &names, s.db.Rebind(
		`SELECT u.name
		 FROM post_likers l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.post_id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: loading likers of post %d: %w", id, err)
	}
	p.Likers = model.NewLikerSet(names...)
	return &p, nil
}

// ListRecent pages through all posts. Likers are not loaded; Likes is.
func (s *PostStore) ListRecent(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	opts = opts.Normalize()

	posts := []model.Post{}
	err := s.db.SelectContext(ctx, &posts, s.db.Rebind(selectPosts+orderPosts+` LIMIT ? OFFSET ?`),
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts: %w", err)
	}
	return posts, nil
}

func (s *PostStore) ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.db.SelectContext(ctx, &posts, s.db.Rebind(selectPosts+` WHERE p.author_id = ?`+orderPosts),
		authorID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts by author %d: %w", authorID, err)
	}
	return posts, nil
}

// UpdateContent replaces the body. The subject and creation time never change.
func (s *PostStore) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE posts SET content = ?, last_modified = ? WHERE id = ?`),
		content, now(), id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating post %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: updating post %d: %w", id, err)
	}
	return requireAffected(n, "post", strconv.FormatInt(id, 10))
}

// Delete removes the post, its comments and its likers in one transaction.
// Child rows are deleted explicitly rather than through ON DELETE CASCADE.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE post_id = ?`), id); err != nil {
			return fmt.Errorf("sqlstore: deleting comments of post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM post_likers WHERE post_id = ?`), id); err != nil {
			return fmt.Errorf("sqlstore: deleting likers of post %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting post %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: deleting post %d: %w", id, err)
		}
		return requireAffected(n, "post", strconv.FormatInt(id, 10))
	})
}

// ToggleLike flips userID's membership in the post's likers.
//
// The whole read-modify-write runs in one transaction:
//
//  1. lock the post row and load its author (NotFound if the post is gone)
//  2. refuse if userID is the author
//  3. delete the (post, user) row; if nothing was deleted, insert it
//  4. recompute likes as COUNT(*) of the likers
//
// Step 1 is a no-op UPDATE rather than a SELECT: it takes the row lock on
// Postgres, so concurrent toggles on one post run one after another and each
// recount sees every liker committed before it. SQLite already serializes
// writers. Step 4 recounts instead of adding or subtracting one, so the
// counter always equals the size of the likers set once the transaction
// commits.
// Two toggles by the same user racing each other can both try the insert;
// the loser gets a Conflict and nothing is written.
func (s *PostStore) ToggleLike(ctx context.Context, postID, userID int64) (model.LikeResult, error) {
	var result model.LikeResult
	pid := strconv.FormatInt(postID, 10)

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var authorID int64
		err := tx.GetContext(ctx, &authorID, tx.Rebind(
			`UPDATE posts SET likes = likes WHERE id = ? RETURNING author_id`), postID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("post", pid)
			}
			return fmt.Errorf("sqlstore: loading post %d for like: %w", postID, err)
		}
		if authorID == userID {
			return apperror.SelfActionForbidden("You can't like your own post.")
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(
			`DELETE FROM post_likers WHERE post_id = ? AND user_id = ?`), postID, userID)
		if err != nil {
			return fmt.Errorf("sqlstore: removing like on post %d: %w", postID, err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: removing like on post %d: %w", postID, err)
		}

		if removed == 0 {
			_, err := tx.ExecContext(ctx, tx.Rebind(
				`INSERT INTO post_likers (post_id, user_id) VALUES (?, ?)`), postID, userID)
			if err != nil {
				if isUniqueViolation(err) {
					return apperror.Conflict("post", pid)
				}
				return fmt.Errorf("sqlstore: adding like on post %d: %w", postID, err)
			}
			result.Liked = true
		}

		err = tx.GetContext(ctx, &result.Likes, tx.Rebind(
			`UPDATE posts
			 SET likes = (SELECT COUNT(*) FROM post_likers WHERE post_id = ?)
			 WHERE id = ?
			 RETURNING likes`), postID, postID)
		if err != nil {
			return fmt.Errorf("sqlstore: recounting likes on post %d: %w", postID, err)
		}
		return nil
	})
	if err != nil {
		return model.LikeResult{}, err
	}
	return result, nil
}
