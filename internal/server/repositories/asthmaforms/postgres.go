package asthmaforms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// PostgresRepository implements form storage over a dbx.DBTX (*sql.DB,
// *sql.Conn or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert relies on user_id being the primary key: concurrent submissions
// for one user serialize on the conflict and never produce two rows.
// updated_at never moves backwards.
func (r *PostgresRepository) Upsert(ctx context.Context, form *models.AsthmaForm) (*models.AsthmaForm, error) {
	symptoms, err := encodeList(form.Symptoms, false)
	if err != nil {
		return nil, err
	}
	triggers, err := encodeList(form.TriggerFactors, false)
	if err != nil {
		return nil, err
	}
	allergies, err := encodeList(form.Allergies, true)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO asthma_data (user_id, severity, symptoms, trigger_factors, allergies, checkup_frequency, last_attack_date, report_pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			severity = EXCLUDED.severity,
			symptoms = EXCLUDED.symptoms,
			trigger_factors = EXCLUDED.trigger_factors,
			allergies = EXCLUDED.allergies,
			checkup_frequency = EXCLUDED.checkup_frequency,
			last_attack_date = EXCLUDED.last_attack_date,
			report_pdf_url = EXCLUDED.report_pdf_url,
			updated_at = GREATEST(now(), asthma_data.updated_at)
		RETURNING ` + Columns("")

	var n NullableForm
	err = r.db.QueryRowContext(ctx, query,
		form.UserID, form.Severity, symptoms, triggers, allergies,
		form.CheckupFrequency, form.LastAttackDate, form.ReportPDFURL,
	).Scan(n.Dest()...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	stored, err := n.Form(form.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("db error: upsert returned no form")
	}
	return stored, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.AsthmaForm, error) {
	query := `SELECT ` + Columns("") + `
		FROM asthma_data
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`

	var n NullableForm
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(n.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	form, err := n.Form(userID)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if form == nil {
		return nil, common.ErrorNotFound
	}
	return form, nil
}

// LockReport serializes form writes for userID until the surrounding
// transaction ends. The advisory lock covers a first submission too, where
// FOR UPDATE finds no row to lock.
func (r *PostgresRepository) LockReport(ctx context.Context, userID string) (*string, error) {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT report_pdf_url FROM asthma_data WHERE user_id = $1 FOR UPDATE`

	var url sql.NullString
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !url.Valid {
		return nil, nil
	}
	return &url.String, nil
}

func (r *PostgresRepository) Status(ctx context.Context, userID string) (*models.FormStatus, error) {
	query := `SELECT updated_at FROM asthma_data WHERE user_id = $1`

	var updatedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.FormStatus{HasSubmitted: false}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	status := &models.FormStatus{HasSubmitted: true}
	if updatedAt.Valid {
		t := updatedAt.Time
		status.LastUpdated = &t
	}
	return status, nil
}
