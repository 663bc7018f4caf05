// Package table provides the rectangular, column-oriented table that raw
// warehouse pulls are loaded into.
//
// A Table holds three column families: int identifier columns (location_id,
// age_group_id, ...), string label columns (parameter, measure, ...), and
// float64 value columns (the draw ensemble or named summary values).
// Tables are immutable once built; filtering and grouping return new tables
// that copy the selected rows, so validation can never mutate its input.
package table
