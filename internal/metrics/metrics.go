package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	DocumentsProcessed *prometheus.CounterVec
	RecordsExtracted   prometheus.Counter
	RowsMissed         prometheus.Counter
	ExactMatches       prometheus.Counter
	UnmatchedCodes     prometheus.Counter
	FuzzySkipped       prometheus.Counter
	CatalogUnavailable prometheus.Counter

	DocumentsRendered  prometheus.Counter
	ImageFallbacks     prometheus.Counter
	ConversionFailures prometheus.Counter
	RenderLatencySec   prometheus.Histogram

	ImportCreated prometheus.Counter
	ImportFailed  prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "supplydesk_documents_processed_total"}, []string{"profile", "status"})
	extracted := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_records_extracted_total"})
	missed := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_rows_missed_total"})
	exact := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_exact_matches_total"})
	unmatched := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_unmatched_codes_total"})
	fuzzySkipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_fuzzy_skipped_total"})
	catalogDown := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_catalog_unavailable_total"})

	rendered := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_documents_rendered_total"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_image_fallbacks_total"})
	convFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_conversion_failures_total"})
	renderLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "supplydesk_render_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	importCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_import_created_total"})
	importFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "supplydesk_import_failed_total"})

	r.MustRegister(processed, extracted, missed, exact, unmatched, fuzzySkipped, catalogDown,
		rendered, fallbacks, convFailures, renderLatency, importCreated, importFailed)
	return &Registry{
		reg:                r,
		DocumentsProcessed: processed,
		RecordsExtracted:   extracted,
		RowsMissed:         missed,
		ExactMatches:       exact,
		UnmatchedCodes:     unmatched,
		FuzzySkipped:       fuzzySkipped,
		CatalogUnavailable: catalogDown,
		DocumentsRendered:  rendered,
		ImageFallbacks:     fallbacks,
		ConversionFailures: convFailures,
		RenderLatencySec:   renderLatency,
		ImportCreated:      importCreated,
		ImportFailed:       importFailed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
