// Package service holds the blog's business rules.
//
// Services take plain values and *model.User actors, never HTTP types, and
// report failures as apperror kinds. The handler layer decides what a kind
// looks like to the browser.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// Messages shown next to signup and login fields.
const (
	MsgInvalidUsername  = "That's not a valid username."
	MsgInvalidPassword  = "That wasn't a valid password."
	MsgPasswordMismatch = "Your passwords didn't match."
	MsgInvalidEmail     = "That's not a valid email."
	MsgUserExists       = "That user already exists."
	MsgInvalidLogin     = "Invalid login"
)

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
	passwordRE = regexp.MustCompile(`^.{3,20}$`)
	emailRE    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// SignupForm is the raw signup submission.
type SignupForm struct {
	Username string `validate:"username"`
	Password string `validate:"password"`
	Verify   string `validate:"eqfield=Password"`
	Email    string `validate:"omitempty,loose_email"`
}

// SignupErrors carries one message per rejected field; an empty string means
// the field is fine.
type SignupErrors struct {
	Username string
	Password string
	Verify   string
	Email    string
}

// Any reports whether at least one field was rejected.
func (e SignupErrors) Any() bool {
	return e.Username != "" || e.Password != "" || e.Verify != "" || e.Email != ""
}

// first returns the first rejected field as a validation error.
func (e SignupErrors) first() error {
	switch {
	case e.Username != "":
		return apperror.ValidationFailed("username", e.Username)
	case e.Password != "":
		return apperror.ValidationFailed("password", e.Password)
	case e.Verify != "":
		return apperror.ValidationFailed("verify", e.Verify)
	case e.Email != "":
		return apperror.ValidationFailed("email", e.Email)
	}
	return nil
}

func newSignupValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, re := range map[string]*regexp.Regexp{
		"username":    usernameRE,
		"password":    passwordRE,
		"loose_email": emailRE,
	} {
		re := re // per-iteration copy; go.mod targets go1.21 loop semantics
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("service: registering %q validation: %v", tag, err))
		}
	}
	return v
}

// UserService registers, finds and authenticates users.
type UserService struct {
	repo     repository.UserRepository
	hasher   *auth.PasswordHasher
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserService(repo repository.UserRepository, hasher *auth.PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		validate: newSignupValidator(),
		logger:   logger,
	}
}

// ValidateSignup runs the field checks only; it does not look at the store.
// The password/verify comparison is only reported when the password itself
// is valid.
func (s *UserService) ValidateSignup(f SignupForm) SignupErrors {
	var out SignupErrors

	err := s.validate.Struct(f)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Username":
			out.Username = MsgInvalidUsername
		case "Password":
			out.Password = MsgInvalidPassword
		case "Verify":
			out.Verify = MsgPasswordMismatch
		case "Email":
			out.Email = MsgInvalidEmail
		}
	}
	if out.Password != "" {
		out.Verify = ""
	}
	return out
}

// NewUser builds an unsaved user with a freshly salted password hash. It
// does not check whether the name is taken.
func (s *UserService) NewUser(name, password, email string) (*model.User, error) {
	hash, err := s.hasher.Hash(name, password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &model.User{Name: name, PasswordHash: hash, Email: email}, nil
}

// Register validates f, checks that the name is free, and saves the user.
//
// A name taken between the check and the insert is caught by the store's
// unique constraint and reported the same way as an existing user.
func (s *UserService) Register(ctx context.Context, f SignupForm) (*model.User, error) {
	if errs := s.ValidateSignup(f); errs.Any() {
		return nil, errs.first()
	}

	existing, err := s.FindByName(ctx, f.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ValidationFailed("username", MsgUserExists)
	}

	u, err := s.NewUser(f.Username, f.Password, f.Email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("username", MsgUserExists)
		}
		s.logger.Error("failed to create user",
			slog.String("name", f.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", u.ID),
		slog.String("name", u.Name),
	)
	return u, nil
}

// FindByName returns (nil, nil) if no user has that name.
func (s *UserService) FindByName(ctx context.Context, name string) (*model.User, error) {
	u, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// FindByID returns (nil, nil) if no user has that ID.
func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// Authenticate returns the user if name and password match, and (nil, nil)
// otherwise. Unknown names and wrong passwords are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*model.User, error) {
	u, err := s.FindByName(ctx, name)
	if err != nil || u == nil {
		return nil, err
	}
	if !s.hasher.Verify(name, password, u.PasswordHash) {
		return nil, nil
	}
	return u, nil
}
