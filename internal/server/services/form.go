package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/asthmaguard/internal/server/storage"
)

const (
	detailBadList = "Invalid JSON format for symptoms, trigger_factors, or allergies"
	detailBadDate = "Invalid date format for last_attack_date"
)

// attackDateLayouts are tried in order. Layouts without a zone are read as UTC.
var attackDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// FormService stores the asthma intake form and its optional report.
type FormService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.DocumentStore
	logger      logging.Logger
}

func NewFormService(db *sql.DB, m repomanager.RepositoryManager, store storage.DocumentStore, logger logging.Logger) *FormService {
	return &FormService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
	}
}

// Status reports whether userID has a form and when it last changed.
func (s *FormService) Status(ctx context.Context, userID string) (*models.FormStatus, error) {
	st, err := s.repomanager.AsthmaForms(s.db).Status(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "error reading form status", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return st, nil
}

// Submit validates sub and stores it as the user's only form, replacing any
// previous one. The report is written only after validation passes and is
// removed again if the database write fails. A report replaced by the
// resubmission is removed after commit.
func (s *FormService) Submit(ctx context.Context, userID string, sub *models.FormSubmission) (*models.AsthmaForm, error) {
	form, err := ParseSubmission(userID, sub)
	if err != nil {
		return nil, err
	}

	var stored string
	if sub.Report != nil {
		stored, err = s.store.Save(ctx, userID, sub.Report)
		if err != nil {
			if errors.Is(err, common.ErrMalformedInput) {
				return nil, err
			}
			s.logger.Error(ctx, "error storing report", "user_id", userID, "error", err)
			return nil, fmt.Errorf("%w: store report: %v", common.ErrStoreUnavailable, err)
		}
		form.ReportPDFURL = &stored
	}

	var (
		saved    *models.AsthmaForm
		previous *string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.AsthmaForms(tx)

		prev, err := repo.LockReport(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		previous = prev

		saved, err = repo.Upsert(ctx, form)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "error saving form", "user_id", userID, "error", err)
		if stored != "" {
			s.removeDocument(ctx, stored)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if previous != nil && *previous != stored {
		s.removeDocument(ctx, *previous)
	}

	s.logger.Info(ctx, "form stored", "user_id", userID, "has_report", stored != "")
	return saved, nil
}

// removeDocument deletes a document best-effort. It runs even when the
// request context is already canceled.
func (s *FormService) removeDocument(ctx context.Context, path string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.store.Delete(ctx, path); err != nil {
		s.logger.Warn(ctx, "error removing report", "path", path, "error", err)
	}
}

// ParseSubmission validates the raw form fields and converts them into an
// AsthmaForm for userID. Report is not touched.
func ParseSubmission(userID string, sub *models.FormSubmission) (*models.AsthmaForm, error) {
	if sub == nil {
		return nil, common.WithDetail(common.ErrMalformedInput, "Empty form")
	}
	if strings.TrimSpace(sub.Severity) == "" {
		return nil, common.WithDetail(common.ErrMalformedInput, "Field required: severity")
	}
	if strings.TrimSpace(sub.CheckupFrequency) == "" {
		return nil, common.WithDetail(common.ErrMalformedInput, "Field required: checkup_frequency")
	}

	symptoms, err := parseList(sub.SymptomsJSON)
	if err != nil {
		return nil, err
	}
	triggers, err := parseList(sub.TriggerFactorsJSON)
	if err != nil {
		return nil, err
	}

	// absent, "" and null all mean no allergies were given
	var allergies []string
	if raw := strings.TrimSpace(sub.AllergiesJSON); raw != "" && raw != "null" {
		if allergies, err = parseList(raw); err != nil {
			return nil, err
		}
	}

	var lastAttack *time.Time
	if sub.LastAttackDate != "" {
		t, err := ParseAttackDate(sub.LastAttackDate)
		if err != nil {
			return nil, err
		}
		lastAttack = &t
	}

	return &models.AsthmaForm{
		UserID:           userID,
		Severity:         sub.Severity,
		Symptoms:         symptoms,
		TriggerFactors:   triggers,
		Allergies:        allergies,
		CheckupFrequency: sub.CheckupFrequency,
		LastAttackDate:   lastAttack,
	}, nil
}

// parseList decodes a JSON array of strings. JSON null decodes to an empty
// list.
func parseList(raw string) ([]string, error) {
	list := []string{}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, common.WithDetail(common.ErrMalformedInput, detailBadList)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// ParseAttackDate accepts an ISO-8601 timestamp with or without zone, or a
// plain date.
func ParseAttackDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range attackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, common.WithDetail(common.ErrMalformedInput, detailBadDate)
}
