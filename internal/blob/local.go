package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under a directory and returns URLs rooted at
// publicBaseURL, or file paths when no base URL is set.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *LocalStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := objectName(contentType)
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	if s.publicBaseURL == "" {
		return path, nil
	}
	return s.publicBaseURL + "/" + name, nil
}
