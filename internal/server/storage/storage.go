// Package storage keeps uploaded asthma reports. Reports are addressed by a
// retrieval path of the form /<prefix>/<reports-dir>/<user-id>/<uuid><ext>,
// which is what gets recorded on the form and served back to clients.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
	"github.com/google/uuid"
)

// DocumentStore persists report documents under a per-user area.
type DocumentStore interface {
	// Save stores doc under a fresh random name that keeps the original
	// extension and returns its retrieval path.
	Save(ctx context.Context, userID string, doc *models.Document) (string, error)
	// Open returns the document stored at a retrieval path.
	Open(ctx context.Context, retrievalPath string) (io.ReadCloser, error)
	// Delete removes the document; a missing document is not an error.
	Delete(ctx context.Context, retrievalPath string) error
	// Handler serves retrieval paths over HTTP.
	Handler() http.Handler
}

// layout maps between retrieval paths and storage keys.
type layout struct {
	prefix     string // "/static"
	reportsDir string // "asthma-reports"
}

func newLayout(prefix, reportsDir string) layout {
	return layout{
		prefix:     "/" + strings.Trim(prefix, "/"),
		reportsDir: strings.Trim(reportsDir, "/"),
	}
}

// newKey returns a storage key and retrieval path for a new document.
func (l layout) newKey(userID, originalName string) (string, string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", common.WithDetail(common.ErrMalformedInput, "Invalid user id")
	}
	key := path.Join(l.reportsDir, userID, uuid.NewString()+extension(originalName))
	return key, l.prefix + "/" + key, nil
}

// keyOf turns a retrieval path back into a storage key. Paths outside the
// reports area are reported as not found.
func (l layout) keyOf(retrievalPath string) (string, error) {
	rest, ok := strings.CutPrefix(retrievalPath, l.prefix+"/")
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrorNotFound, retrievalPath)
	}
	key := path.Clean(rest)
	if !strings.HasPrefix(key, l.reportsDir+"/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %s", common.ErrorNotFound, retrievalPath)
	}
	return key, nil
}

// extension returns the extension of a client-supplied file name as sent,
// case included. An extension that could not be used verbatim in a storage
// key or URL path is dropped.
func extension(name string) string {
	ext := filepath.Ext(path.Base(strings.ReplaceAll(name, `\`, "/")))
	if len(ext) > 16 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+') {
			return ""
		}
	}
	return ext
}
