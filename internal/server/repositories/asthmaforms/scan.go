package asthmaforms

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// NullableForm receives the asthma_data columns of a query that may not
// match a row, such as a LEFT JOIN from users. Column order follows Dest.
type NullableForm struct {
	Severity         sql.NullString
	Symptoms         []byte
	TriggerFactors   []byte
	Allergies        []byte
	CheckupFrequency sql.NullString
	LastAttackDate   sql.NullTime
	ReportPDFURL     sql.NullString
	CreatedAt        sql.NullTime
	UpdatedAt        sql.NullTime
}

// Columns lists the asthma_data columns matching Dest, qualified by alias
// when alias is not empty.
func Columns(alias string) string {
	p := ""
	if alias != "" {
		p = alias + "."
	}
	return fmt.Sprintf("%[1]sseverity, %[1]ssymptoms, %[1]strigger_factors, %[1]sallergies, "+
		"%[1]scheckup_frequency, %[1]slast_attack_date, %[1]sreport_pdf_url, %[1]screated_at, %[1]supdated_at", p)
}

func (n *NullableForm) Dest() []any {
	return []any{
		&n.Severity, &n.Symptoms, &n.TriggerFactors, &n.Allergies,
		&n.CheckupFrequency, &n.LastAttackDate, &n.ReportPDFURL, &n.CreatedAt, &n.UpdatedAt,
	}
}

// Form assembles the scanned columns. A NULL symptoms column means no row
// was joined, in which case Form returns nil.
func (n *NullableForm) Form(userID string) (*models.AsthmaForm, error) {
	if n.Symptoms == nil {
		return nil, nil
	}

	form := &models.AsthmaForm{
		UserID:           userID,
		Severity:         n.Severity.String,
		CheckupFrequency: n.CheckupFrequency.String,
		CreatedAt:        n.CreatedAt.Time,
		UpdatedAt:        n.UpdatedAt.Time,
	}

	var err error
	if form.Symptoms, err = decodeList(n.Symptoms); err != nil {
		return nil, fmt.Errorf("symptoms: %w", err)
	}
	if form.TriggerFactors, err = decodeList(n.TriggerFactors); err != nil {
		return nil, fmt.Errorf("trigger_factors: %w", err)
	}
	if n.Allergies != nil {
		if form.Allergies, err = decodeList(n.Allergies); err != nil {
			return nil, fmt.Errorf("allergies: %w", err)
		}
	}
	if n.LastAttackDate.Valid {
		t := n.LastAttackDate.Time
		form.LastAttackDate = &t
	}
	if n.ReportPDFURL.Valid {
		u := n.ReportPDFURL.String
		form.ReportPDFURL = &u
	}

	return form, nil
}

func decodeList(b []byte) ([]string, error) {
	list := []string{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// encodeList returns the JSONB text for list, or nil (SQL NULL) for a nil
// list when nullable is set.
func encodeList(list []string, nullable bool) (any, error) {
	if list == nil {
		if nullable {
			return nil, nil
		}
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
