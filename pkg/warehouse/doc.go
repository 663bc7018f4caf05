// Package warehouse reads raw GBD datasets from a local snapshot.
//
// A snapshot is a single SQLite file holding draw tables keyed by entity,
// measure, and location, plus the round metadata (estimation years, location
// hierarchy paths) the validation context needs. The load command builds
// snapshots; extraction runs open them read-only through the Client
// interface. An in-memory implementation backs tests.
package warehouse
