// Package cli provides shared helpers for the verity command line:
// output formatting (text, JSON, CSV), progress reporting, signal-aware
// contexts, and command error wrapping.
package cli
