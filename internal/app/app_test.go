package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal/config"
)

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "code", "K100")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"code":"K100"`)

	buf.Reset()
	NewLogger(config.Config{LogLevel: "nonsense"}, &buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestOpenWiresServices(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		DBPath:       filepath.Join(dir, "app.db"),
		ProfilesPath: filepath.Join(dir, "missing.yaml"),
		TemplatePath: filepath.Join(dir, "missing.docx"),
		BlobLocalDir: dir,
	}
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"generic", "bwa"}, a.Profiles.Names())
	assert.Nil(t, a.Converter())
	assert.NotNil(t, a.Processor())
	assert.NotNil(t, a.Documents())
	assert.NotNil(t, a.CatalogSync())

	_, err = a.Assembler()
	assert.ErrorContains(t, err, "read template")

	importer, err := a.Importer(context.Background(), "Acme")
	require.NoError(t, err)
	assert.NotNil(t, importer)

	_, err = a.Fetcher(context.Background(), "pop3")
	assert.Error(t, err)

	a.Config.ConvertAPIBaseURL = "http://convert.test"
	assert.NotNil(t, a.Converter())

	a.ServeMetrics(context.Background())
}
