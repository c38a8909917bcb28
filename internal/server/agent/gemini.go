package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"google.golang.org/genai"
)

// Instructions is the system instruction sent with every generation request.
const Instructions = "You are an expert recommender for asthma patients. You are given a PDF file " +
	"of an asthma patient's report and live air pollutant data. Based on the patient's report " +
	"and pollutant readings, provide personalized recommendations."

const (
	defaultModel        = "gemini-2.0-flash"
	defaultPollInterval = time.Second
	defaultMIMEType     = "application/pdf"
)

// fileService and modelService are the parts of the genai client the agent
// uses.
type fileService interface {
	Upload(ctx context.Context, r io.Reader, cfg *genai.UploadFileConfig) (*genai.File, error)
	Get(ctx context.Context, name string, cfg *genai.GetFileConfig) (*genai.File, error)
}

type modelService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAgent uploads documents through the Gemini Files API and generates
// text with a Gemini model.
type GeminiAgent struct {
	files        fileService
	models       modelService
	model        string
	pollInterval time.Duration
}

// NewGeminiAgent creates a Gemini API client for apiKey. An empty model
// selects gemini-2.0-flash.
func NewGeminiAgent(ctx context.Context, apiKey, model string) (*GeminiAgent, error) {
	if apiKey == "" {
		return nil, errors.New("empty Gemini API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGeminiAgent(client.Files, client.Models, model), nil
}

func newGeminiAgent(fs fileService, ms modelService, model string) *GeminiAgent {
	if model == "" {
		model = defaultModel
	}
	return &GeminiAgent{
		files:        fs,
		models:       ms,
		model:        model,
		pollInterval: defaultPollInterval,
	}
}

// Ingest uploads doc and waits until the service has finished processing it.
func (a *GeminiAgent) Ingest(ctx context.Context, doc *models.Document) (*DocumentRef, error) {
	if doc == nil || doc.Body == nil {
		return nil, errors.New("nothing to ingest")
	}
	mimeType := doc.ContentType
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = defaultMIMEType
	}

	f, err := a.files.Upload(ctx, doc.Body, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: doc.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	for f.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pollInterval):
		}
		name := f.Name
		f, err = a.files.Get(ctx, name, nil)
		if err != nil {
			return nil, fmt.Errorf("poll document %s: %w", name, err)
		}
	}
	if f.State == genai.FileStateFailed {
		return nil, fmt.Errorf("document %s could not be processed", f.Name)
	}

	if f.MIMEType != "" {
		mimeType = f.MIMEType
	}
	return &DocumentRef{Name: f.Name, URI: f.URI, MIMEType: mimeType}, nil
}

// Generate sends prompt, preceded by the referenced document if any, and
// returns the model's text.
func (a *GeminiAgent) Generate(ctx context.Context, prompt string, ref *DocumentRef) (string, error) {
	parts := make([]*genai.Part, 0, 2)
	if ref != nil && ref.URI != "" {
		parts = append(parts, genai.NewPartFromURI(ref.URI, ref.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := a.models.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(Instructions, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
