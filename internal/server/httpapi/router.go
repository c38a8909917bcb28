// Package httpapi exposes the server's HTTP interface: signup and login,
// the caller's profile, the asthma form, recommendations, uploaded reports
// and a health check.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// UserService is implemented by services.UserService.
type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// SessionService is implemented by services.SessionService.
type SessionService interface {
	Resolve(ctx context.Context, token string) (*models.Profile, error)
	RequireActive(p *models.Profile) (*models.Profile, error)
}

// FormService is implemented by services.FormService.
type FormService interface {
	Status(ctx context.Context, userID string) (*models.FormStatus, error)
	Submit(ctx context.Context, userID string, sub *models.FormSubmission) (*models.AsthmaForm, error)
}

// RecommendationService is implemented by services.RecommendationService.
type RecommendationService interface {
	Recommend(ctx context.Context, userID string, upload *models.Document) (string, error)
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps collects everything the router needs.
type Deps struct {
	Users           UserService
	Sessions        SessionService
	Forms           FormService
	Recommendations RecommendationService
	DB              Pinger

	// Static serves previously uploaded reports under StaticPrefix.
	Static       http.Handler
	StaticPrefix string

	MaxUploadSize  int64
	AllowedOrigins []string
	Logger         logging.Logger
}

type handler struct {
	users           UserService
	sessions        SessionService
	forms           FormService
	recommendations RecommendationService
	db              Pinger
	maxUploadSize   int64
	logger          logging.Logger
}

// NewRouter builds the chi router for the public API.
func NewRouter(d Deps) http.Handler {
	h := &handler{
		users:           d.Users,
		sessions:        d.Sessions,
		forms:           d.Forms,
		recommendations: d.Recommendations,
		db:              d.DB,
		maxUploadSize:   d.MaxUploadSize,
		logger:          d.Logger.With("module", "http_server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(d.AllowedOrigins)))

	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Get("/healthz", h.healthz)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/users/me", h.me)
		r.Get("/asthma-form-status", h.formStatus)
		r.Post("/asthma-form", h.submitForm)
		r.Post("/get_recommendations", h.recommend)
	})

	if d.Static != nil {
		prefix := "/" + strings.Trim(d.StaticPrefix, "/")
		r.Handle(prefix+"/*", d.Static)
	}

	return r
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}
	// Credentials cannot be combined with a wildcard origin.
	if len(origins) > 0 && origins[0] != "*" {
		opts.AllowCredentials = true
	}
	return opts
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
