package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/asthmaforms"
)

const (
	constraintEmail    = "users_email_key"
	constraintUsername = "users_username_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, email, hashed_password, disabled)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.HashedPassword, user.Disabled).Scan(&user.CreatedAt)
	if err != nil {
		if constraint, ok := dbx.IsUniqueViolation(err); ok {
			switch constraint {
			case constraintEmail:
				return nil, ErrEmailTaken
			case constraintUsername:
				return nil, ErrUsernameTaken
			default:
				return nil, fmt.Errorf("%w: %s", common.ErrConflict, constraint)
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, username, email, hashed_password, disabled, created_at FROM users
		 WHERE email = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.UserName, &user.Email, &user.HashedPassword, &user.Disabled, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Taken(ctx context.Context, email, username string) (bool, bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1),
		        EXISTS (SELECT 1 FROM users WHERE username = $2)`

	var emailTaken, usernameTaken bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&emailTaken, &usernameTaken); err != nil {
		return false, false, fmt.Errorf("db error: %w", err)
	}
	return emailTaken, usernameTaken, nil
}

// GetProfileByEmail uses a LEFT JOIN so a user without a form still
// resolves; the form part is then nil.
func (r *PostgresRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query :=
		`SELECT u.id, u.username, u.email, u.hashed_password, u.disabled, u.created_at, ` + asthmaforms.Columns("a") + `
		 FROM users u
		 LEFT JOIN asthma_data a ON a.user_id = u.id
		 WHERE u.email = $1`

	p := &models.Profile{}
	var form asthmaforms.NullableForm
	dest := append([]any{
		&p.ID, &p.UserName, &p.Email, &p.HashedPassword, &p.Disabled, &p.CreatedAt,
	}, form.Dest()...)

	if err := r.db.QueryRowContext(ctx, query, email).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	data, err := form.Form(p.ID)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	p.AsthmaData = data

	return p, nil
}

func (r *PostgresRepository) SetDisabled(ctx context.Context, email string, disabled bool) error {
	query := `UPDATE users SET disabled = $1 WHERE email = $2`

	res, err := r.db.ExecContext(ctx, query, disabled, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
