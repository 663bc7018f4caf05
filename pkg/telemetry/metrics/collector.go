package metrics

import (
	"time"

	"vitalstats/verity/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector manages the Prometheus metrics for extraction runs. It owns a
// registry and pre-registered metric instances, so recording is cheap and
// safe to call from every worker.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	tablesValidated    *prometheus.CounterVec
	validationWarnings *prometheus.CounterVec
	validationErrors   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec

	warehouseQueries      *prometheus.CounterVec
	warehouseDuration     prometheus.Histogram
	artifactRowsWritten   *prometheus.CounterVec
	artifactWriteDuration prometheus.Histogram

	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	activeWorkers prometheus.Gauge
}

// NewCollector creates a metrics collector with the given configuration and
// registry. If registry is nil a fresh one is used, which keeps independent
// collectors (and tests) from colliding on metric names.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.tablesValidated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "tables_validated_total",
		Help:      "Raw data tables validated, by measure and outcome status.",
	}, []string{"measure", "status"})

	c.validationWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "validation_warnings_total",
		Help:      "Validation warnings emitted, by measure.",
	}, []string{"measure"})

	c.validationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "validation_errors_total",
		Help:      "Fatal validation errors, by error type.",
	}, []string{"error_type"})

	c.validationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "validation_duration_seconds",
		Help:      "Time spent validating a single raw data table.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"measure"})

	c.warehouseQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "warehouse_queries_total",
		Help:      "Warehouse queries issued, by status.",
	}, []string{"status"})

	c.warehouseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "warehouse_query_duration_seconds",
		Help:      "Warehouse query latency.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	c.artifactRowsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "artifact_rows_written_total",
		Help:      "Rows written to the artifact store, by dataset.",
	}, []string{"dataset"})

	c.artifactWriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "artifact_write_duration_seconds",
		Help:      "Time spent writing a dataset to the artifact store.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	c.runsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "runs_started_total",
		Help:      "Extraction runs started.",
	})

	c.runsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "runs_completed_total",
		Help:      "Extraction runs completed, by status.",
	}, []string{"status"})

	c.activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "active_workers",
		Help:      "Extraction workers currently processing a request.",
	})

	registry.MustRegister(
		c.tablesValidated,
		c.validationWarnings,
		c.validationErrors,
		c.validationDuration,
		c.warehouseQueries,
		c.warehouseDuration,
		c.artifactRowsWritten,
		c.artifactWriteDuration,
		c.runsStarted,
		c.runsCompleted,
		c.activeWorkers,
	)

	return c
}

// RecordValidation records the outcome of validating one raw data table.
// Status is "ok", "warned", or "failed".
func (c *Collector) RecordValidation(measure, status string, warnings int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.tablesValidated.WithLabelValues(measure, status).Inc()
	if warnings > 0 {
		c.validationWarnings.WithLabelValues(measure).Add(float64(warnings))
	}
	c.validationDuration.WithLabelValues(measure).Observe(duration.Seconds())
}

// RecordValidationError records a fatal validation error by its type, e.g.
// "data_abnormal" or "data_missing".
func (c *Collector) RecordValidationError(errorType string) {
	if !c.config.Enabled {
		return
	}
	c.validationErrors.WithLabelValues(errorType).Inc()
}

// RecordWarehouseQuery records a warehouse query. Status is "ok" or "error".
func (c *Collector) RecordWarehouseQuery(status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.warehouseQueries.WithLabelValues(status).Inc()
	c.warehouseDuration.Observe(duration.Seconds())
}

// RecordArtifactWrite records rows written to an artifact dataset.
func (c *Collector) RecordArtifactWrite(dataset string, rows int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.artifactRowsWritten.WithLabelValues(dataset).Add(float64(rows))
	c.artifactWriteDuration.Observe(duration.Seconds())
}

// RunStarted records the start of an extraction run.
func (c *Collector) RunStarted() {
	if !c.config.Enabled {
		return
	}
	c.runsStarted.Inc()
}

// RunCompleted records the end of an extraction run. Status is "success",
// "partial", or "failed".
func (c *Collector) RunCompleted(status string) {
	if !c.config.Enabled {
		return
	}
	c.runsCompleted.WithLabelValues(status).Inc()
}

// WorkerStarted marks a worker as busy.
func (c *Collector) WorkerStarted() {
	if !c.config.Enabled {
		return
	}
	c.activeWorkers.Inc()
}

// WorkerDone marks a worker as idle.
func (c *Collector) WorkerDone() {
	if !c.config.Enabled {
		return
	}
	c.activeWorkers.Dec()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
