package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server/agent"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/asthmaforms"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/sensors"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

const testUserID = "8f14e45f-ceea-467f-a0e6-3f1c0b6a3c21"

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret", "HS256", time.Minute)
	require.NoError(t, err)
	return ts
}

func discardLogger() logging.Logger {
	return logging.NewJSON(io.Discard, "debug")
}

// --- repositories ---

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	byEmail    map[string]*models.User
	getErr     error
	profile    *models.Profile
	profileErr error

	emailTaken    bool
	usernameTaken bool
	takenErr      error

	disabledEmail string
	disabledValue bool
	disableErr    error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) Taken(ctx context.Context, email, username string) (bool, bool, error) {
	return f.emailTaken, f.usernameTaken, f.takenErr
}

func (f *fakeUsersRepo) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil || f.profile.Email != email {
		return nil, common.ErrorNotFound
	}
	return f.profile, nil
}

func (f *fakeUsersRepo) SetDisabled(ctx context.Context, email string, disabled bool) error {
	if f.disableErr != nil {
		return f.disableErr
	}
	f.disabledEmail = email
	f.disabledValue = disabled
	return nil
}

type fakeFormsRepo struct {
	form   *models.AsthmaForm
	getErr error

	previous  *string
	lockErr   error
	upserted  *models.AsthmaForm
	upsertErr error

	status    *models.FormStatus
	statusErr error
}

func (f *fakeFormsRepo) Upsert(ctx context.Context, form *models.AsthmaForm) (*models.AsthmaForm, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserted = form
	out := *form
	out.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out.UpdatedAt = out.CreatedAt
	return &out, nil
}

func (f *fakeFormsRepo) GetByUserID(ctx context.Context, userID string) (*models.AsthmaForm, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.form == nil {
		return nil, common.ErrorNotFound
	}
	return f.form, nil
}

func (f *fakeFormsRepo) LockReport(ctx context.Context, userID string) (*string, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	return f.previous, nil
}

func (f *fakeFormsRepo) Status(ctx context.Context, userID string) (*models.FormStatus, error) {
	return f.status, f.statusErr
}

type fakeSensorsRepo struct {
	reading *models.SensorReading
	err     error
}

func (f *fakeSensorsRepo) Latest(ctx context.Context) (*models.SensorReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.reading == nil {
		return nil, common.ErrorNotFound
	}
	return f.reading, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFormsRepo
	s *fakeSensorsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	return m.u
}

func (m *fakeRepoManager) AsthmaForms(db dbx.DBTX) asthmaforms.Repository {
	return m.f
}

func (m *fakeRepoManager) Sensors(db dbx.DBTX) sensors.Repository {
	return m.s
}

// --- document store ---

type fakeStore struct {
	saved   map[string][]byte
	saveErr error
	openErr error
	deleted []string
	delErr  error
	next    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string][]byte{}, next: "/static/asthma-reports/" + testUserID + "/new.pdf"}
}

func (s *fakeStore) Save(ctx context.Context, userID string, doc *models.Document) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	b, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", err
	}
	s.saved[s.next] = b
	return s.next, nil
}

func (s *fakeStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	b, ok := s.saved[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	s.deleted = append(s.deleted, path)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.saved, path)
	return nil
}

func (s *fakeStore) Handler() http.Handler { return http.NotFoundHandler() }

// --- agent ---

type fakeAgent struct {
	ingested   []string
	ingestMIME string
	ingestErr  error

	prompt string
	ref    *agent.DocumentRef
	out    string
	genErr error
}

func (a *fakeAgent) Ingest(ctx context.Context, doc *models.Document) (*agent.DocumentRef, error) {
	if a.ingestErr != nil {
		return nil, a.ingestErr
	}
	b, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, err
	}
	a.ingested = append(a.ingested, string(b))
	a.ingestMIME = doc.ContentType
	return &agent.DocumentRef{Name: "files/" + doc.Name, URI: "uri://" + doc.Name, MIMEType: doc.ContentType}, nil
}

func (a *fakeAgent) Generate(ctx context.Context, prompt string, ref *agent.DocumentRef) (string, error) {
	a.prompt = prompt
	a.ref = ref
	if a.genErr != nil {
		return "", a.genErr
	}
	return a.out, nil
}
