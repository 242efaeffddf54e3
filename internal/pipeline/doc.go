// Package pipeline runs one report: resolve the source files, load and merge
// them, analyse the unified dataset, print the reports, then draw the chart
// and write the optional exports.
//
// Every stage gets its own span and duration measurement. A stage error stops
// the run; a single unreadable source file does not, it is skipped and listed
// after the reports.
package pipeline
