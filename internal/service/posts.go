package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

const (
	MsgPostRequired    = "subject and content, please!"
	MsgContentRequired = "content, please!"
)

// PostService enforces who may write, edit, delete and like posts.
//
// AUTHORIZATION:
//
//	create      any logged-in user
//	edit/delete the author only (Forbidden otherwise)
//	like        any logged-in user except the author (SelfAction)
//
// A nil actor always means "not logged in" and yields Unauthenticated.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{repo: repo, logger: logger}
}

// Create saves a new post by author. Subject and content are both required.
func (s *PostService) Create(ctx context.Context, author *model.User, subject, content string) (*model.Post, error) {
	if author == nil {
		return nil, apperror.Unauthenticated("write a post")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("subject", MsgPostRequired)
	}

	p := &model.Post{
		Subject:    subject,
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create post",
			slog.Int64("authorID", author.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", p.ID),
		slog.String("author", author.Name),
	)
	return p, nil
}

// Get returns the post or an apperror.ErrNotFound.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of posts, newest first.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	posts, err := s.repo.ListRecent(ctx, repository.ListOptions{Limit: limit, Offset: offset}.Normalize())
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns every post written by author, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, author *model.User) ([]model.Post, error) {
	if author == nil {
		return nil, apperror.Unauthenticated("see your posts")
	}
	posts, err := s.repo.ListByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("listing posts by %s: %w", author.Name, err)
	}
	return posts, nil
}

// GetOwned returns the post only if actor wrote it. Handlers use it to
// decide whether to show the edit and delete forms at all.
func (s *PostService) GetOwned(ctx context.Context, actor *model.User, id int64, action string) (*model.Post, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated(action + " posts")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAuthor(actor) {
		s.logger.Warn("post ownership check failed",
			slog.Int64("postID", id),
			slog.Int64("actorID", actor.ID),
			slog.String("action", action),
		)
		return nil, apperror.Forbidden(fmt.Sprintf("You can only %s your own posts.", action))
	}
	return p, nil
}

// Edit replaces the content of actor's post. The subject stays as written.
func (s *PostService) Edit(ctx context.Context, actor *model.User, id int64, content string) (*model.Post, error) {
	p, err := s.GetOwned(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", MsgContentRequired)
	}

	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		return nil, fmt.Errorf("editing post %d: %w", id, err)
	}
	p.Content = content

	s.logger.Info("post edited", slog.Int64("id", id))
	return p, nil
}

// Delete removes actor's post along with its comments and likes.
func (s *PostService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if _, err := s.GetOwned(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	s.logger.Info("post deleted",
		slog.Int64("id", id),
		slog.String("author", actor.Name),
	)
	return nil
}

// ToggleLike likes the post for actor, or unlikes it if actor already does.
func (s *PostService) ToggleLike(ctx context.Context, actor *model.User, id int64) (model.LikeResult, error) {
	if actor == nil {
		return model.LikeResult{}, apperror.Unauthenticated("like posts")
	}

	res, err := s.repo.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		return model.LikeResult{}, err
	}

	verb := "post unliked"
	if res.Liked {
		verb = "post liked"
	}
	s.logger.Info(verb,
		slog.Int64("postID", id),
		slog.String("user", actor.Name),
		slog.Int("likes", res.Likes),
	)
	return res, nil
}
