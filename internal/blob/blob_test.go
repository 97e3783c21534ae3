package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal/config"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "https://cdn.test/images/")

	url, err := store.Put(context.Background(), []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.test/images/products/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	name := strings.TrimPrefix(url, "https://cdn.test/images/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalStoreWithoutBaseURLReturnsPath(t *testing.T) {
	dir := t.TempDir()
	path, err := NewLocalStore(dir, "").Put(context.Background(), []byte("x"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	assert.Equal(t, ".jpg", filepath.Ext(path))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.Config{BlobBackend: "s3"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.Config{BlobBackend: "gcs"})
	assert.ErrorContains(t, err, "GCS_BUCKET")

	store, err := New(context.Background(), config.Config{BlobLocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("image-data"))
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(0, 32)

	data, err := fetcher.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image-data", string(data))

	var fetchErr *FetchError
	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing.png")
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Message, "404")

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/big.png")
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Message, "exceeds")

	_, err = fetcher.Fetch(context.Background(), "ftp://example.test/a.png")
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "invalid URL", fetchErr.Message)
}
