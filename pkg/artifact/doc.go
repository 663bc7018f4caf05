// Package artifact writes validated datasets to a local parquet store.
//
// Each extraction run produces a directory containing one parquet file per
// dataset and a manifest.json recording provenance: which entity, measure,
// and location each file came from and how many validation warnings the
// data carried. Rows share a fixed schema of demographic identifiers, a
// JSON attribute map for measure-specific columns, and the draw ensemble
// as a list column.
package artifact
