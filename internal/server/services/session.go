package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
)

// SessionService turns a bearer token into the caller's profile.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	logger      logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		logger:      logger,
	}
}

// Resolve verifies token and loads the user it names together with their
// form. Every failure, including an unreachable store, is reported as
// common.ErrorUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Profile, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	p, err := s.repomanager.Users(s.db).GetProfileByEmail(ctx, email)
	if err != nil {
		s.logger.Debug(ctx, "session lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return p, nil
}

// RequireActive rejects profiles of disabled users.
func (s *SessionService) RequireActive(p *models.Profile) (*models.Profile, error) {
	if p.Disabled {
		return nil, common.WithDetail(common.ErrInactiveAccount, "Inactive user")
	}
	return p, nil
}
