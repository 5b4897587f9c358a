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

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, name, password_hash, email, created_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u. A taken name is reported as a Conflict, which covers the
// race between the caller's uniqueness check and this insert.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	u.CreatedAt = now()

	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO users (name, password_hash, email, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		u.Name, u.PasswordHash, u.Email, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", u.Name)
		}
		return fmt.Errorf("sqlstore: creating user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return &u, nil
}

// GetByName matches the name exactly (case-sensitive).
func (s *UserStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE name = ?`), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", name)
		}
		return nil, fmt.Errorf("sqlstore: getting user %q: %w", name, err)
	}
	return &u, nil
}
