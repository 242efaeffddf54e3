package exporter

import (
	"math"
	"strconv"
	"time"
)

// TimestampLayout is used for every exported timestamp
const TimestampLayout = "2006-01-02 15:04:05"

// formatFloat formats a metric with the shortest exact representation.
// NaN and infinities export as an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTime formats a timestamp; a missing one exports as an empty cell
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// nullable maps NaN and infinities to nil so JSON and spreadsheet cells stay empty
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
