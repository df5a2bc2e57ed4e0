// Package metrics exposes pipeline counters and the optional scrape endpoint.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsSelected tracks the number of discs selected for enrichment.
	RecordsSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discimg_records_selected_total",
		Help: "The total number of discs selected for enrichment.",
	})
	// Successes tracks discs whose image landed in the catalog and backup store.
	Successes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discimg_success_total",
		Help: "The total number of discs enriched successfully.",
	})
	// Failures tracks per-disc failures, labeled by pipeline stage.
	Failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discimg_failures_total",
		Help: "The total number of per-disc failures by pipeline stage.",
	}, []string{"stage"})
	// BackupBytes tracks bytes written to the backup directory.
	BackupBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discimg_backup_bytes_total",
		Help: "The total number of image bytes written to the backup directory.",
	})
)

// Handler serves /metrics and /healthz for the duration of a run.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
