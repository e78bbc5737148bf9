// Package prometheus exports pipeline stage metrics for scraping.
package prometheus

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.StageRecorder = (*Recorder)(nil)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusNoOp    = "noop"
	StatusError   = "error"
)

// Recorder counts stage runs and the records they move.
type Recorder struct {
	gatherer prometheus.Gatherer

	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	records      *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
	errorsByKind *prometheus.CounterVec
}

// NewRecorder registers stage metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return newRecorder(reg, reg)
}

func newRecorder(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: gatherer,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlift_stage_runs_total",
				Help: "Total number of pipeline stage runs",
			},
			[]string{"stage", "status"}, // success, noop or error
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchlift_stage_duration_seconds",
				Help:    "Time taken by a pipeline stage run",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"stage"},
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlift_stage_records_total",
				Help: "Records handled by pipeline stages",
			},
			[]string{"stage", "outcome"}, // fetched, written, skipped, unparseable
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "searchlift_stage_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run of each stage",
			},
			[]string{"stage"},
		),
		errorsByKind: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchlift_stage_errors_total",
				Help: "Failed stage runs by error kind",
			},
			[]string{"stage", "kind"},
		),
	}
}

// RecordStage observes a finished run.
func (r *Recorder) RecordStage(report *domain.StageReport, err error) {
	if report == nil {
		return
	}
	stage := string(report.Stage)

	r.duration.WithLabelValues(stage).Observe(report.Duration().Seconds())
	r.records.WithLabelValues(stage, "fetched").Add(float64(report.Fetched))
	r.records.WithLabelValues(stage, "written").Add(float64(report.Written))
	r.records.WithLabelValues(stage, "skipped").Add(float64(report.Skipped))
	r.records.WithLabelValues(stage, "unparseable").Add(float64(len(report.Failures)))

	switch {
	case err != nil:
		r.runs.WithLabelValues(stage, StatusError).Inc()
		r.errorsByKind.WithLabelValues(stage, errorKind(err)).Inc()
	case report.NoOp:
		r.runs.WithLabelValues(stage, StatusNoOp).Inc()
		r.lastSuccess.WithLabelValues(stage).Set(float64(report.EndedAt.Unix()))
	default:
		r.runs.WithLabelValues(stage, StatusSuccess).Inc()
		r.lastSuccess.WithLabelValues(stage).Set(float64(report.EndedAt.Unix()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// errorKind buckets an error by the domain sentinel it wraps.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrAnalyticsUnavailable):
		return "analytics_unavailable"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "llm_unavailable"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, domain.ErrAuthInvalid):
		return "auth_invalid"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
