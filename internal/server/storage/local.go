package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// LocalStore writes reports below a static directory on disk and serves
// them with http.FileServer.
type LocalStore struct {
	root string
	layout
}

// NewLocalStore stores reports in <staticDir>/<reportsDir>/<user-id>/ and
// serves <staticDir> under prefix.
func NewLocalStore(staticDir, prefix, reportsDir string) *LocalStore {
	return &LocalStore{root: staticDir, layout: newLayout(prefix, reportsDir)}
}

func (s *LocalStore) Save(ctx context.Context, userID string, doc *models.Document) (string, error) {
	key, retrievalPath, err := s.newKey(userID, doc.Name)
	if err != nil {
		return "", err
	}

	file := s.file(key)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}

	if _, err := io.Copy(f, doc.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(file)
		return "", fmt.Errorf("storage error: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(file)
		return "", fmt.Errorf("storage error: %w", err)
	}

	return retrievalPath, nil
}

func (s *LocalStore) Open(ctx context.Context, retrievalPath string) (io.ReadCloser, error) {
	key, err := s.keyOf(retrievalPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.file(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, retrievalPath)
		}
		return nil, fmt.Errorf("storage error: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, retrievalPath string) error {
	key, err := s.keyOf(retrievalPath)
	if err != nil {
		return err
	}
	if err := os.Remove(s.file(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage error: %w", err)
	}
	return nil
}

// Handler serves files under the static directory. Directory listings are
// not exposed.
func (s *LocalStore) Handler() http.Handler {
	files := http.StripPrefix(s.prefix, http.FileServer(http.Dir(s.root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *LocalStore) file(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
