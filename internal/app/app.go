// Package app wires configuration into the services shared by the
// supplydesk CLI and the mail listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"supplydesk/internal/assemble"
	"supplydesk/internal/blob"
	"supplydesk/internal/catalog"
	"supplydesk/internal/config"
	"supplydesk/internal/connectors"
	"supplydesk/internal/convert"
	"supplydesk/internal/extract"
	"supplydesk/internal/listener"
	"supplydesk/internal/metrics"
	"supplydesk/internal/pipeline"
	"supplydesk/internal/reconcile"
	"supplydesk/internal/storage"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *storage.DB
	Metrics  *metrics.Registry
	Profiles *extract.Registry
}

// NewLogger builds a text or JSON handler from LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func Open(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg, os.Stderr)
	}
	profiles, err := extract.LoadRegistry(cfg.ProfilesPath)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Metrics:  metrics.NewRegistry(),
		Profiles: profiles,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) Reconciler() *reconcile.Service {
	engine := reconcile.NewEngine(a.Config.MatchSuggestionCap, a.Config.MatchFuzzyMaxUnmatched)
	timeout := time.Duration(a.Config.CatalogTimeoutMs) * time.Millisecond
	return reconcile.NewService(a.DB, engine, a.Config.CatalogSnapshotLimit, timeout, a.Logger)
}

// Converter is nil when no conversion service is configured.
func (a *App) Converter() pipeline.Converter {
	if strings.TrimSpace(a.Config.ConvertAPIBaseURL) == "" {
		return nil
	}
	return convert.NewClient(a.Config)
}

func (a *App) Documents() *pipeline.DocumentExtractor {
	return pipeline.NewDocumentExtractor(a.Profiles, a.Converter(), a.Logger)
}

func (a *App) Processor() *pipeline.ProcessingService {
	return pipeline.NewProcessingService(a.DB, a.Profiles, a.Reconciler(), pipeline.ProcessorOptions{
		Converter: a.Converter(),
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	})
}

func (a *App) Assembler() (*assemble.Assembler, error) {
	template, err := os.ReadFile(a.Config.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	placeholder, err := assemble.LoadPlaceholder(a.Config.PlaceholderImagePath)
	if err != nil {
		return nil, err
	}
	opts := assemble.Options{
		Template:     template,
		Placeholder:  placeholder,
		Fetcher:      blob.NewHTTPFetcher(a.Config.ImageFetchTimeout, a.Config.ImageMaxBytes),
		FetchTimeout: a.Config.ImageFetchTimeout,
		Logger:       a.Logger,
		OnImageFallback: func(string) {
			a.Metrics.ImageFallbacks.Inc()
		},
	}
	if conv := a.Converter(); conv != nil {
		opts.Converter = conv
	}
	return assemble.New(opts), nil
}

func (a *App) Importer(ctx context.Context, supplier string) (*catalog.Importer, error) {
	store, err := blob.New(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	return catalog.NewImporter(a.DB, store, catalog.ImporterOptions{
		BatchSize: a.Config.ImportBatchSize,
		Supplier:  supplier,
		Logger:    a.Logger,
		Metrics:   a.Metrics,
	}), nil
}

func (a *App) CatalogSync() *catalog.SyncService {
	return catalog.NewSyncService(a.DB, catalog.NewClient(a.Config), a.Logger)
}

func (a *App) Fetcher(ctx context.Context, provider string) (*connectors.FetchService, error) {
	conn, err := connectors.New(ctx, a.Config, provider)
	if err != nil {
		return nil, err
	}
	return connectors.NewFetchService(a.DB, a.Config.RawMailDir, conn, a.Logger), nil
}

func (a *App) Listener(ctx context.Context) (*listener.Service, error) {
	provider := strings.ToLower(strings.TrimSpace(a.Config.MailListenerProvider))
	fetcher, err := a.Fetcher(ctx, provider)
	if err != nil {
		return nil, err
	}
	return listener.NewService(a.DB, fetcher, a.Processor(), listener.Options{
		Provider:     provider,
		Label:        a.Config.MailListenerLabel,
		Interval:     time.Duration(a.Config.MailListenerIntervalSec) * time.Second,
		FetchMax:     a.Config.MailListenerFetchMax,
		ProcessBatch: a.Config.MailListenerProcessBatch,
		AutoExport:   a.Config.MailListenerAutoExport,
		OutputDir:    a.Config.OutputDir,
	}, a.Logger), nil
}

// ServeMetrics exposes /metrics on METRICS_ADDR until ctx ends. It is a
// no-op when the address is empty.
func (a *App) ServeMetrics(ctx context.Context) {
	if a.Config.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	srv := &http.Server{Addr: a.Config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		a.Logger.Info("serving metrics", "addr", a.Config.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server stopped", "error", err)
		}
	}()
}
