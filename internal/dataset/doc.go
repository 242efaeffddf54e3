// Package dataset merges normalized source tables into one in-memory table
// and provides the row selections the analysis needs.
package dataset
