// Package logging provides structured logging for extraction runs.
//
// The package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with run ids and extraction metadata
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger.Info("table validated",
//	    "entity", "diarrheal_diseases",
//	    "measure", "incidence",
//	    "warnings", 2,
//	)
//
//	// Context-aware logging
//	ctx := logging.WithRunID(ctx, runID)
//	ctx = logging.WithLocation(ctx, 163)
//	logger.InfoContext(ctx, "extraction started") // run_id and location_id included
package logging
