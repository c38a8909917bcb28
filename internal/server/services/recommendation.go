package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/agent"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/asthmaguard/internal/server/storage"
	"github.com/google/uuid"
)

const detailNoForm = "No record found for the given user_id"

// RecommendationService asks the agent for advice based on a user's form,
// their report and the latest air-quality reading.
type RecommendationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.DocumentStore
	agent       agent.Agent
	logger      logging.Logger
}

func NewRecommendationService(db *sql.DB, m repomanager.RepositoryManager, store storage.DocumentStore, a agent.Agent, logger logging.Logger) *RecommendationService {
	return &RecommendationService{
		db:          db,
		repomanager: m,
		store:       store,
		agent:       a,
		logger:      logger,
	}
}

// Recommend returns the agent's text for userID. An uploaded document is
// preferred over the stored report; without either the prompt is sent alone.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, upload *models.Document) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", common.WithDetail(common.ErrorNotFound, detailNoForm)
	}

	var (
		form    *models.AsthmaForm
		reading *models.SensorReading
	)
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn dbx.DBTX) error {
		var err error
		form, err = s.repomanager.AsthmaForms(conn).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		reading, err = s.repomanager.Sensors(conn).Latest(ctx)
		if errors.Is(err, common.ErrorNotFound) {
			reading = nil
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.WithDetail(common.ErrorNotFound, detailNoForm)
		}
		s.logger.Error(ctx, "error loading recommendation inputs", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	ref, err := s.ingest(ctx, form, upload)
	if err != nil {
		s.logger.Error(ctx, "error ingesting document", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	text, err := s.agent.Generate(ctx, BuildPrompt(form, reading), ref)
	if err != nil {
		s.logger.Error(ctx, "agent failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return text, nil
}

// ingest hands the chosen document to the agent. A stored report that has
// gone missing is skipped.
func (s *RecommendationService) ingest(ctx context.Context, form *models.AsthmaForm, upload *models.Document) (*agent.DocumentRef, error) {
	if upload != nil {
		return s.agent.Ingest(ctx, upload)
	}
	if form.ReportPDFURL == nil {
		return nil, nil
	}

	rc, err := s.store.Open(ctx, *form.ReportPDFURL)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "stored report is missing", "path", *form.ReportPDFURL)
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	name := path.Base(*form.ReportPDFURL)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/pdf"
	}
	return s.agent.Ingest(ctx, &models.Document{Name: name, ContentType: contentType, Body: rc})
}

// BuildPrompt renders the patient's form and the pollutant levels into the
// question sent to the agent. A missing reading is shown as n/a.
func BuildPrompt(form *models.AsthmaForm, reading *models.SensorReading) string {
	var b strings.Builder

	b.WriteString("This is some basic information about the patient:\n")
	fmt.Fprintf(&b, "Severity: %s\n", form.Severity)
	fmt.Fprintf(&b, "Symptoms: %s\n", joinOr(form.Symptoms, "none"))
	fmt.Fprintf(&b, "Trigger Factors: %s\n", joinOr(form.TriggerFactors, "none"))
	fmt.Fprintf(&b, "Allergies: %s\n", joinOr(form.Allergies, "none"))
	fmt.Fprintf(&b, "Checkup frequency: %s\n", form.CheckupFrequency)
	if form.LastAttackDate != nil {
		fmt.Fprintf(&b, "Last Attack Date: %s\n", form.LastAttackDate.Format("2006-01-02"))
	} else {
		b.WriteString("Last Attack Date: unknown\n")
	}

	b.WriteString("These are the live pollutant levels:\n")
	if reading != nil {
		fmt.Fprintf(&b, "PM1.0: %s, PM2.5: %s, PM10: %s, NO2: %s.\n",
			level(reading.PM1), level(reading.PM25), level(reading.PM10), level(reading.NO2))
	} else {
		b.WriteString("PM1.0: n/a, PM2.5: n/a, PM10: n/a, NO2: n/a.\n")
	}

	b.WriteString("Based on this information and the attached report, if any, please provide " +
		"personalized recommendations for the patient.\n")
	b.WriteString("The recommendations should be short and crisp.\n")
	b.WriteString("Give RECOMMENDATIONS IN 2 LINES based on the current pollutant levels and the " +
		"patient's condition.")

	return b.String()
}

func joinOr(list []string, empty string) string {
	if len(list) == 0 {
		return empty
	}
	return strings.Join(list, ", ")
}

func level(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
