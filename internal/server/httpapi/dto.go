package httpapi

import (
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

type profileResponse struct {
	userResponse
	AsthmaData *asthmaFormResponse `json:"asthma_data"`
}

type asthmaFormResponse struct {
	Severity         string     `json:"severity"`
	Symptoms         []string   `json:"symptoms"`
	TriggerFactors   []string   `json:"trigger_factors"`
	Allergies        []string   `json:"allergies"`
	CheckupFrequency string     `json:"checkup_frequency"`
	LastAttackDate   *time.Time `json:"last_attack_date"`
	ReportPDFURL     *string    `json:"report_pdf_url"`
}

type formStatusResponse struct {
	HasSubmitted bool       `json:"has_submitted"`
	LastUpdated  *time.Time `json:"last_updated"`
}

type recommendationResponse struct {
	UserID          string `json:"user_id"`
	Recommendations string `json:"recommendations"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.UserName,
		Email:    u.Email,
		Disabled: u.Disabled,
	}
}

func newProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{
		userResponse: newUserResponse(&p.User),
		AsthmaData:   newAsthmaFormResponse(p.AsthmaData),
	}
}

func newAsthmaFormResponse(f *models.AsthmaForm) *asthmaFormResponse {
	if f == nil {
		return nil
	}
	return &asthmaFormResponse{
		Severity:         f.Severity,
		Symptoms:         f.Symptoms,
		TriggerFactors:   f.TriggerFactors,
		Allergies:        f.Allergies,
		CheckupFrequency: f.CheckupFrequency,
		LastAttackDate:   f.LastAttackDate,
		ReportPDFURL:     f.ReportPDFURL,
	}
}
