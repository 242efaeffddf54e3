// Package loader reads per-app traffic exports and reshapes them into the
// unified record schema.
//
// Each export has a few summary lines above the header row, a timestamp in
// its second column and footer rows mixed into the data. Normalize drops the
// footers, selects the analysis columns, coerces dates and numbers (missing
// values become the zero time and NaN) and discards rows with no data at all.
//
// LoadAll never aborts on a bad file: every source gets a FileResult and
// failed files carry a typed error so callers can report what was skipped.
package loader
