package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(t *testing.T, u *fakeUsersRepo) *SessionService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	return NewSessionService(db, &fakeRepoManager{u: u}, newTokens(t), discardLogger())
}

func TestResolve_ReturnsProfile(t *testing.T) {
	profile := &models.Profile{User: models.User{ID: "u1", UserName: "alice", Email: "a@x.com"}}
	s := newSessionService(t, &fakeUsersRepo{profile: profile})

	token, err := s.tokens.Issue("a@x.com", time.Minute)
	require.NoError(t, err)

	got, err := s.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, profile, got)
	assert.Nil(t, got.AsthmaData)
}

func TestResolve_Failures(t *testing.T) {
	other, err := auth.NewTokenService("other-secret", "HS256", time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue("a@x.com", time.Minute)
	require.NoError(t, err)

	profile := &models.Profile{User: models.User{ID: "u1", Email: "a@x.com"}}

	cases := []struct {
		name  string
		repo  *fakeUsersRepo
		token func(s *SessionService) string
	}{
		{
			name:  "garbage token",
			repo:  &fakeUsersRepo{profile: profile},
			token: func(*SessionService) string { return "not-a-jwt" },
		},
		{
			name:  "wrong key",
			repo:  &fakeUsersRepo{profile: profile},
			token: func(*SessionService) string { return forged },
		},
		{
			name: "empty subject",
			repo: &fakeUsersRepo{profile: profile},
			token: func(s *SessionService) string {
				tok, err := s.tokens.Issue("", time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "unknown user",
			repo: &fakeUsersRepo{profile: profile},
			token: func(s *SessionService) string {
				tok, err := s.tokens.Issue("ghost@x.com", time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "store down",
			repo: &fakeUsersRepo{profileErr: errBoom},
			token: func(s *SessionService) string {
				tok, err := s.tokens.Issue("a@x.com", time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSessionService(t, tc.repo)
			_, err := s.Resolve(context.Background(), tc.token(s))
			require.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}

func TestRequireActive(t *testing.T) {
	s := newSessionService(t, &fakeUsersRepo{})

	active := &models.Profile{User: models.User{ID: "u1"}}
	got, err := s.RequireActive(active)
	require.NoError(t, err)
	assert.Same(t, active, got)

	_, err = s.RequireActive(&models.Profile{User: models.User{ID: "u2", Disabled: true}})
	require.ErrorIs(t, err, common.ErrInactiveAccount)
	assert.Equal(t, "Inactive user", common.DetailOf(err))
}
