package models

import (
	"io"
	"time"
)

// AsthmaForm is the intake form stored for a user. There is at most one per
// user; resubmission replaces every field.
type AsthmaForm struct {
	UserID           string
	Severity         string
	Symptoms         []string
	TriggerFactors   []string
	Allergies        []string // nil when the user gave no allergies
	CheckupFrequency string
	LastAttackDate   *time.Time
	ReportPDFURL     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FormSubmission carries a form exactly as received from the client, before
// the list and date fields are parsed.
type FormSubmission struct {
	Severity           string
	SymptomsJSON       string
	TriggerFactorsJSON string
	AllergiesJSON      string // "" means absent
	CheckupFrequency   string
	LastAttackDate     string // "" means absent
	Report             *Document
}

// FormStatus answers whether a user has submitted a form and when it last
// changed.
type FormStatus struct {
	HasSubmitted bool
	LastUpdated  *time.Time
}

// Document is an uploaded file on its way to storage or to the agent.
type Document struct {
	Name        string
	ContentType string
	Body        io.Reader
}
