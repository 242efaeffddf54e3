// Package report prints the analysis results as plain-text tables.
//
// Tables follow the layout analysts know from spreadsheet and dataframe
// tools: an optional left-aligned index column, right-aligned value columns
// and four decimal places for every metric.
package report
