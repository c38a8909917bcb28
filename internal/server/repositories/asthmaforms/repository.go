// Package asthmaforms persists the per-user asthma intake form.
package asthmaforms

import (
	"context"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

type Repository interface {
	// Upsert inserts the form or replaces every field of the existing row for
	// the same user in a single statement, returning the stored row.
	Upsert(ctx context.Context, form *models.AsthmaForm) (*models.AsthmaForm, error)
	// GetByUserID returns the most recent form for userID or common.ErrorNotFound.
	GetByUserID(ctx context.Context, userID string) (*models.AsthmaForm, error)
	// LockReport locks the user's form slot for the rest of the transaction,
	// whether or not a form exists yet, and returns the current report path
	// or common.ErrorNotFound when no form exists.
	LockReport(ctx context.Context, userID string) (*string, error)
	Status(ctx context.Context, userID string) (*models.FormStatus, error)
}
