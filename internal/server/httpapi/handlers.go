package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// multipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.BearerScheme})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newProfileResponse(profileFrom(r.Context())))
}

func (h *handler) formStatus(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r.Context())

	st, err := h.forms.Status(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formStatusResponse{HasSubmitted: st.HasSubmitted, LastUpdated: st.LastUpdated})
}

func (h *handler) submitForm(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r.Context())

	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	defer removeMultipart(r)

	report, closeReport, err := formDocument(r, "report_pdf")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeReport()

	form, err := h.forms.Submit(r.Context(), p.ID, &models.FormSubmission{
		Severity:           r.FormValue("severity"),
		SymptomsJSON:       r.FormValue("symptoms"),
		TriggerFactorsJSON: r.FormValue("trigger_factors"),
		AllergiesJSON:      r.FormValue("allergies"),
		CheckupFrequency:   r.FormValue("checkup_frequency"),
		LastAttackDate:     r.FormValue("last_attack_date"),
		Report:             report,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAsthmaFormResponse(form))
}

// recommend only serves the caller's own form; another user's id is
// answered exactly like an unknown one.
func (h *handler) recommend(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r.Context())

	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	defer removeMultipart(r)

	userID := r.FormValue("user_id")
	if userID == "" {
		h.writeError(w, r, common.WithDetail(common.ErrMalformedInput, "Field required: user_id"))
		return
	}
	if userID != p.ID {
		h.writeError(w, r, common.WithDetail(common.ErrorNotFound, "No record found for the given user_id"))
		return
	}

	upload, closeUpload, err := formDocument(r, "file")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeUpload()

	text, err := h.recommendations.Recommend(r.Context(), userID, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{UserID: userID, Recommendations: text})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.WithDetail(common.ErrMalformedInput, "Invalid request body")
	}
	return nil
}

// parseMultipart bounds the body by maxUploadSize and parses it as a
// multipart form. URL-encoded bodies are accepted too; they just cannot
// carry files.
func (h *handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.WithDetail(common.ErrMalformedInput, "Upload is too large")
		}
		return common.WithDetail(common.ErrMalformedInput, "Invalid multipart form")
	}
	return nil
}

func removeMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formDocument returns the file sent in field, or nil when the field is
// absent or empty. The returned func closes the file.
func formDocument(r *http.Request, field string) (*models.Document, func(), error) {
	nop := func() {}
	if r.MultipartForm == nil {
		return nil, nop, nil
	}

	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nop, nil
		}
		return nil, nop, common.WithDetail(common.ErrMalformedInput, "Invalid file in "+field)
	}
	if hdr.Filename == "" && hdr.Size == 0 {
		f.Close()
		return nil, nop, nil
	}

	return &models.Document{
		Name:        hdr.Filename,
		ContentType: contentType(hdr),
		Body:        f,
	}, func() { f.Close() }, nil
}

func contentType(hdr *multipart.FileHeader) string {
	if ct := hdr.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
