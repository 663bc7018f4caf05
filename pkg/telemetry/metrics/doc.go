// Package metrics provides Prometheus instrumentation for extraction runs.
//
// A Collector owns a registry and pre-registered metrics covering
// validation outcomes, warehouse queries, artifact writes, and worker
// activity. Construct one per run:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	collector.RecordValidation("incidence", "ok", 0, elapsed)
//
// Expose the registry over HTTP when a scrape endpoint is configured:
//
//	http.Handle("/metrics", collector.Handler())
package metrics
