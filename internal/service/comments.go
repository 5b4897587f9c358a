package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

const MsgCommentRequired = "comment, please!"

// CommentService manages comments. Each user has at most one comment per
// post: commenting again replaces the earlier body.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, posts: posts, logger: logger}
}

// Create writes actor's comment on the post, replacing any earlier one.
func (s *CommentService) Create(ctx context.Context, actor *model.User, postID int64, body string) (*model.Comment, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("comment")
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperror.ValidationFailed("comment", MsgCommentRequired)
	}

	c := &model.Comment{PostID: postID, AuthorID: actor.ID, Body: body}
	if err := s.comments.Upsert(ctx, c); err != nil {
		s.logger.Error("failed to save comment",
			slog.Int64("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving comment: %w", err)
	}

	s.logger.Info("comment saved",
		slog.String("id", c.ID),
		slog.Int64("postID", postID),
		slog.String("author", actor.Name),
	)
	return c, nil
}

// Get returns the comment if it exists and belongs to postID.
func (s *CommentService) Get(ctx context.Context, postID int64, id string) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.PostID != postID {
		return nil, apperror.NotFound("comment", id)
	}
	return c, nil
}

// ListByPost returns the post's comments oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// FindMine returns actor's comment on the post, or (nil, nil) if there is
// none or actor is anonymous.
func (s *CommentService) FindMine(ctx context.Context, actor *model.User, postID int64) (*model.Comment, error) {
	if actor == nil {
		return nil, nil
	}
	c, err := s.comments.FindByPostAndAuthor(ctx, postID, actor.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// GetOwned returns the comment only if actor wrote it.
func (s *CommentService) GetOwned(ctx context.Context, actor *model.User, postID int64, id, action string) (*model.Comment, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated(action + " comments")
	}
	c, err := s.Get(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	if !c.IsAuthor(actor) {
		s.logger.Warn("comment ownership check failed",
			slog.String("commentID", id),
			slog.Int64("actorID", actor.ID),
			slog.String("action", action),
		)
		return nil, apperror.Forbidden(fmt.Sprintf("You can only %s your own comments.", action))
	}
	return c, nil
}

// Edit replaces the body of actor's comment. Post and author never change.
func (s *CommentService) Edit(ctx context.Context, actor *model.User, postID int64, id, body string) (*model.Comment, error) {
	c, err := s.GetOwned(ctx, actor, postID, id, "edit")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperror.ValidationFailed("comment", MsgCommentRequired)
	}
	if err := s.comments.UpdateBody(ctx, id, body); err != nil {
		return nil, fmt.Errorf("editing comment %s: %w", id, err)
	}
	c.Body = body

	s.logger.Info("comment edited", slog.String("id", id))
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *model.User, postID int64, id string) error {
	if _, err := s.GetOwned(ctx, actor, postID, id, "delete"); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting comment %s: %w", id, err)
	}

	s.logger.Info("comment deleted", slog.String("id", id))
	return nil
}
