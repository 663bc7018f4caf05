// Package gbd defines the identifier vocabulary of the Global Burden of
// Disease data warehouse: measure, metric, and sex id codes, the special
// aggregate age groups, the canonical age-group ordering, and the fixed
// draw and demographic column names shared by every raw table.
//
// The values here are stable warehouse codes, not configuration. Anything
// that can vary between warehouse snapshots (estimation years, location
// hierarchy, the exact age-group universe) is served by pkg/warehouse and
// threaded through validation as part of the validation context instead.
package gbd
