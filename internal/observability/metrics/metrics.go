package metrics

import (
	"database/sql"
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energy_"

	resultAccepted = "accepted"
)

var (
	registerOnce sync.Once

	filesAdmitted *prometheus.CounterVec

	jobsTotal  *prometheus.CounterVec
	jobLatency *prometheus.HistogramVec

	rowsTotal *prometheus.CounterVec

	validationErrors *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		filesAdmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "files_admitted_total",
				Help: "Total admission attempts by result",
			},
			[]string{"result"},
		)

		jobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "jobs_total",
				Help: "Total processing jobs by terminal state",
			},
			[]string{"state"},
		)
		jobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_latency_seconds",
				Help:    "Job processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"state"},
		)

		rowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_total",
				Help: "Total processed rows by outcome",
			},
			[]string{"outcome"},
		)

		validationErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_errors_total",
				Help: "Total recorded validation errors by kind",
			},
			[]string{"kind"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			filesAdmitted,
			jobsTotal,
			jobLatency,
			rowsTotal,
			validationErrors,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveAdmission increments the admission counter.
func ObserveAdmission(result string) {
	if result == "" {
		result = resultAccepted
	}
	if filesAdmitted != nil {
		filesAdmitted.WithLabelValues(result).Inc()
	}
}

// ObserveJob records a finished job's terminal state and duration.
func ObserveJob(state string, seconds float64) {
	if state == "" {
		state = "unknown"
	}
	if seconds < 0 {
		seconds = 0
	}
	if jobsTotal != nil {
		jobsTotal.WithLabelValues(state).Inc()
	}
	if jobLatency != nil {
		jobLatency.WithLabelValues(state).Observe(seconds)
	}
}

// ObserveRow increments the row outcome counter.
func ObserveRow(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if rowsTotal != nil {
		rowsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveValidationError increments the validation error counter.
func ObserveValidationError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if validationErrors != nil {
		validationErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveExport records a report export by format and result.
func ObserveExport(format, result string, seconds float64) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = "success"
	}
	if seconds < 0 {
		seconds = 0
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(seconds)
	}
}
