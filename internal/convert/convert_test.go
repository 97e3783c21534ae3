package convert

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal/config"
)

func newTestClient(url string) *Client {
	c := NewClient(config.Config{ConvertAPIBaseURL: url, ConvertAPIToken: "tok", ConvertTimeout: time.Second})
	c.sleep = func(time.Duration) {}
	return c
}

func TestConvertRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "docx", r.URL.Query().Get("from"))
		assert.Equal(t, "pdf", r.URL.Query().Get("to"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "native", string(body))
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Convert(context.Background(), []byte("native"), "DOCX", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(out))
	assert.Equal(t, 2, calls)
}

func TestConvertReportsClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad input", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Convert(context.Background(), []byte("x"), "pdf", "docx")
	var convErr *Error
	require.True(t, errors.As(err, &convErr))
	assert.Contains(t, convErr.Message, "422")
	assert.Equal(t, 1, calls)
}

func TestConvertExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Convert(context.Background(), []byte("x"), "docx", "pdf")
	var convErr *Error
	require.True(t, errors.As(err, &convErr))
	assert.Contains(t, convErr.Message, "503")
	assert.Equal(t, maxAttempts, calls)
}

func TestConvertValidatesInputs(t *testing.T) {
	_, err := newTestClient("").Convert(context.Background(), nil, "docx", "pdf")
	assert.ErrorContains(t, err, "CONVERT_API_BASE_URL")

	_, err = newTestClient("http://convert.test").Convert(context.Background(), nil, "odt", "pdf")
	assert.ErrorContains(t, err, "unsupported source format")
}
