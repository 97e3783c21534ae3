package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	ProfilesPath         string
	TemplatePath         string
	PlaceholderImagePath string

	CatalogAPIBaseURL    string
	CatalogAPIToken      string
	CatalogRateLimitRPS  int
	CatalogTimeoutMs     int
	CatalogSnapshotLimit int
	CatalogPageSize      int

	MatchSuggestionCap     int
	MatchFuzzyMaxUnmatched int

	ImageFetchTimeout time.Duration
	ImageMaxBytes     int64

	ConvertAPIBaseURL string
	ConvertAPIToken   string
	ConvertTimeout    time.Duration

	BlobBackend        string
	BlobLocalDir       string
	BlobPublicBaseURL  string
	GCSBucket          string
	GCSCredentialsFile string
	ImportBatchSize    int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "supplydesk.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ProfilesPath:         getEnv("PROFILES_PATH", filepath.Join(cwd, "profiles.yaml")),
		TemplatePath:         getEnv("TEMPLATE_PATH", filepath.Join(cwd, "assets", "templates", "order.docx")),
		PlaceholderImagePath: getEnv("PLACEHOLDER_IMAGE_PATH", filepath.Join(cwd, "assets", "placeholder.png")),

		CatalogAPIBaseURL:    getEnv("CATALOG_API_BASE_URL", ""),
		CatalogAPIToken:      getEnv("CATALOG_API_TOKEN", ""),
		CatalogRateLimitRPS:  getEnvInt("CATALOG_RATE_LIMIT_RPS", 5),
		CatalogTimeoutMs:     getEnvInt("CATALOG_TIMEOUT_MS", 30000),
		CatalogSnapshotLimit: getEnvInt("CATALOG_SNAPSHOT_LIMIT", 0),
		CatalogPageSize:      getEnvInt("CATALOG_PAGE_SIZE", 200),

		MatchSuggestionCap:     getEnvInt("MATCH_SUGGESTION_CAP", 5),
		MatchFuzzyMaxUnmatched: getEnvInt("MATCH_FUZZY_MAX_UNMATCHED", 20),

		ImageFetchTimeout: getEnvDuration("IMAGE_FETCH_TIMEOUT", 10*time.Second),
		ImageMaxBytes:     int64(getEnvInt("IMAGE_MAX_BYTES", 10<<20)),

		ConvertAPIBaseURL: getEnv("CONVERT_API_BASE_URL", ""),
		ConvertAPIToken:   getEnv("CONVERT_API_TOKEN", ""),
		ConvertTimeout:    getEnvDuration("CONVERT_TIMEOUT", 60*time.Second),

		BlobBackend:        strings.ToLower(getEnv("BLOB_BACKEND", "local")),
		BlobLocalDir:       getEnv("BLOB_LOCAL_DIR", filepath.Join(cwd, "data", "blobs")),
		BlobPublicBaseURL:  getEnv("BLOB_PUBLIC_BASE_URL", ""),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		ImportBatchSize:    getEnvInt("IMPORT_BATCH_SIZE", 5),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", true),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go durations ("15s") or plain milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
