// Package agent talks to the generative model that turns a patient's form,
// report and the current air quality into short recommendations.
package agent

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// ErrUnavailable is returned by an agent that has no model configured.
var ErrUnavailable = errors.New("recommendation agent is not configured")

// DocumentRef points at a document the model can read.
type DocumentRef struct {
	Name     string
	URI      string
	MIMEType string
}

// Agent ingests supporting documents and generates text from a prompt.
type Agent interface {
	// Ingest makes doc available to the model.
	Ingest(ctx context.Context, doc *models.Document) (*DocumentRef, error)
	// Generate answers prompt, reading ref when it is not nil.
	Generate(ctx context.Context, prompt string, ref *DocumentRef) (string, error)
}

// Disabled is the agent used when no API key is configured. Every call fails
// with ErrUnavailable.
type Disabled struct{}

func (Disabled) Ingest(context.Context, *models.Document) (*DocumentRef, error) {
	return nil, ErrUnavailable
}

func (Disabled) Generate(context.Context, string, *DocumentRef) (string, error) {
	return "", ErrUnavailable
}
