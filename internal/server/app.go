// Package server wires the AsthmaGuard components together and runs them:
// the HTTP API, the gRPC health service and the database they share.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/agent"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/config"
	"github.com/dmitrijs2005/asthmaguard/internal/server/httpapi"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/asthmaguard/internal/server/services"
	"github.com/dmitrijs2005/asthmaguard/internal/server/storage"

	gs "github.com/dmitrijs2005/asthmaguard/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

// OpenDatabase opens the pgx-backed pool. The schema is not touched.
func OpenDatabase(c *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// NewStore builds the report store selected by StorageBackend.
func NewStore(ctx context.Context, c *config.Config) (storage.DocumentStore, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		s, err := storage.NewS3Store(ctx, c)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return storage.NewLocalStore(c.StaticDir, c.StaticPrefix, c.ReportsDir), nil
	}
}

// NewAgent returns the Gemini agent, or a disabled one when no API key is set.
func NewAgent(ctx context.Context, c *config.Config, l logging.Logger) (agent.Agent, error) {
	if c.GeminiAPIKey == "" {
		l.Warn(ctx, "GOOGLE_API_KEY is not set, recommendations are disabled")
		return agent.Disabled{}, nil
	}
	return agent.NewGeminiAgent(ctx, c.GeminiAPIKey, c.GeminiModel)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()

	db, err := OpenDatabase(c)
	if err != nil {
		return nil, err
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := NewStore(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	ag, err := NewAgent(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("agent init error: %w", err)
	}

	tokens, err := auth.NewTokenService(c.SecretKey, c.SigningAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Users:           services.NewUserService(db, m, tokens, c.AccessTokenValidityDuration, logger),
		Sessions:        services.NewSessionService(db, m, tokens, logger),
		Forms:           services.NewFormService(db, m, store, logger),
		Recommendations: services.NewRecommendationService(db, m, store, ag, logger),
		DB:              db,
		Static:          store.Handler(),
		StaticPrefix:    c.StaticPrefix,
		MaxUploadSize:   c.MaxUploadSize,
		AllowedOrigins:  c.CORSAllowedOrigins,
		Logger:          logger,
	})

	return &App{config: c, logger: logger, db: db, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.db, app.config.HealthCheckInterval, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a server fails, then
// closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
