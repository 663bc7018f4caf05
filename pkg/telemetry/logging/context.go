package logging

import (
	"context"
)

// Context keys for run-scoped log fields.
type contextKey string

const (
	// RunIDKey is the context key for extraction run ids.
	RunIDKey contextKey = "run_id"

	// EntityKey is the context key for the entity being processed.
	EntityKey contextKey = "entity"

	// MeasureKey is the context key for the measure being processed.
	MeasureKey contextKey = "measure"

	// LocationKey is the context key for location ids.
	LocationKey contextKey = "location_id"
)

// WithRunID adds an extraction run id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the extraction run id from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithEntity adds an entity name to the context.
func WithEntity(ctx context.Context, entity string) context.Context {
	return context.WithValue(ctx, EntityKey, entity)
}

// GetEntity retrieves the entity name from the context.
func GetEntity(ctx context.Context) string {
	if entity, ok := ctx.Value(EntityKey).(string); ok {
		return entity
	}
	return ""
}

// WithMeasure adds a measure name to the context.
func WithMeasure(ctx context.Context, measure string) context.Context {
	return context.WithValue(ctx, MeasureKey, measure)
}

// GetMeasure retrieves the measure name from the context.
func GetMeasure(ctx context.Context) string {
	if measure, ok := ctx.Value(MeasureKey).(string); ok {
		return measure
	}
	return ""
}

// WithLocation adds a location id to the context.
func WithLocation(ctx context.Context, locationID int) context.Context {
	return context.WithValue(ctx, LocationKey, locationID)
}

// GetLocation retrieves the location id from the context. The second return
// value reports whether a location was set.
func GetLocation(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(LocationKey).(int)
	return id, ok
}

// extractContextFields extracts run-scoped fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}
	if entity := GetEntity(ctx); entity != "" {
		fields = append(fields, "entity", entity)
	}
	if measure := GetMeasure(ctx); measure != "" {
		fields = append(fields, "measure", measure)
	}
	if locationID, ok := GetLocation(ctx); ok {
		fields = append(fields, "location_id", locationID)
	}

	return fields
}
