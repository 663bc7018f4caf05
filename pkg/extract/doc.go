// Package extract orchestrates extraction runs: it pulls raw datasets from
// the warehouse, runs the metadata and raw-data validation layers, and
// writes validated tables to the artifact store. Requests are processed by
// a worker pool sharing one validation context per run.
package extract
