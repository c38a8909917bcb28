// Package users persists user accounts.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// Unique constraint violations reported by Create. Both match
// common.ErrConflict.
var (
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", common.ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", common.ErrConflict)
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Taken reports which of email and username are already in use.
	Taken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	// GetProfileByEmail returns the user joined with their asthma form, if any.
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	SetDisabled(ctx context.Context, email string, disabled bool) error
}
