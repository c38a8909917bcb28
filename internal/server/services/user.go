// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and the admin-only disabled flag.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/users"
	"github.com/google/uuid"
)

const detailBadLogin = "Incorrect email or password"

// UserService provides account operations:
// - Signup: create users with unique email and username
// - Login: verify credentials and mint a bearer token
// - SetDisabled: flip the disabled flag (admin CLI only)
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	tokenTTL    time.Duration
	logger      logging.Logger
}

// NewUserService constructs a UserService. tokenTTL is the lifetime of
// tokens issued by Login.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, tokenTTL time.Duration, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// Signup creates an active user. A duplicate email or username fails with
// common.ErrConflict; the unique constraints catch signups racing past the
// pre-check.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.WithDetail(common.ErrMalformedInput, "Username is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, common.WithDetail(common.ErrMalformedInput, "Invalid email address")
	}
	if password == "" {
		return nil, common.WithDetail(common.ErrMalformedInput, "Password is required")
	}

	repo := s.repomanager.Users(s.db)

	emailTaken, usernameTaken, err := repo.Taken(ctx, email, username)
	if err != nil {
		return nil, s.storeError(ctx, "signup pre-check failed", err)
	}
	switch {
	case emailTaken:
		return nil, conflictError(users.ErrEmailTaken)
	case usernameTaken:
		return nil, conflictError(users.ErrUsernameTaken)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, common.ErrMalformedInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		ID:             uuid.NewString(),
		UserName:       username,
		Email:          email,
		HashedPassword: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, conflictError(err)
		}
		return nil, s.storeError(ctx, "error creating user", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks email and password and returns a bearer token whose subject
// is the email. Unknown email and wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.WithDetail(common.ErrorUnauthorized, detailBadLogin)
		}
		return "", s.storeError(ctx, "error loading user", err)
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		return "", common.WithDetail(common.ErrorUnauthorized, detailBadLogin)
	}

	token, err := s.tokens.Issue(user.Email, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// SetDisabled marks the account with the given email as disabled or active.
func (s *UserService) SetDisabled(ctx context.Context, email string, disabled bool) error {
	err := s.repomanager.Users(s.db).SetDisabled(ctx, email, disabled)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.WithDetail(common.ErrorNotFound, "User not found")
		}
		return s.storeError(ctx, "error updating user", err)
	}
	s.logger.Info(ctx, "user disabled flag changed", "email", email, "disabled", disabled)
	return nil
}

func conflictError(err error) error {
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return common.WithDetail(common.ErrConflict, "Email already registered")
	case errors.Is(err, users.ErrUsernameTaken):
		return common.WithDetail(common.ErrConflict, "Username already taken")
	default:
		return common.WithDetail(common.ErrConflict, "User already exists")
	}
}

func (s *UserService) storeError(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}
