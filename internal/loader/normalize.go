package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "ivtcli/internal/errors"
	"ivtcli/pkg/contracts/domain"
)

// dateColumnIndex is the position of the timestamp column in every export
const dateColumnIndex = 1

// summaryMarkers identify report footer rows that survive the header skip,
// e.g. "2024-05-01 to 2024-05-07" or "Data as of ..."
var summaryMarkers = []string{"to", "Data"}

// NormalizeOptions controls how raw rows are reshaped
type NormalizeOptions struct {
	// HeaderLines is the number of summary lines above the header row
	HeaderLines int
	// SpreadsheetDates reads numeric Date cells as Excel serials
	SpreadsheetDates bool
}

// Stats counts what Normalize did with the data rows of one file
type Stats struct {
	DataRows    int
	SummaryRows int
	EmptyRows   int
}

// Normalize turns the raw rows of one export into unified records tagged with tag.
// Rows are returned in file order.
func Normalize(rows [][]string, tag domain.SourceTag, opts NormalizeOptions) ([]domain.Record, Stats, error) {
	var stats Stats

	if opts.HeaderLines < 0 {
		opts.HeaderLines = 0
	}
	if len(rows) <= opts.HeaderLines {
		return nil, stats, apperrors.NewSchemaError(
			fmt.Sprintf("expected a header after %d summary lines, file has %d lines", opts.HeaderLines, len(rows)), nil)
	}

	header := headerNames(rows[opts.HeaderLines])
	if len(header) <= dateColumnIndex {
		return nil, stats, apperrors.NewSchemaError(
			fmt.Sprintf("header has %d columns, need at least %d", len(header), dateColumnIndex+1), nil)
	}
	header[dateColumnIndex] = domain.ColDate

	index, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}

	data := rows[opts.HeaderLines+1:]
	for i, row := range data {
		if len(row) > len(header) {
			return nil, stats, apperrors.NewParsingError(
				fmt.Sprintf("expected %d fields, saw %d", len(header), len(row)), nil).
				WithContext("line", opts.HeaderLines+2+i)
		}
	}

	dateIdx := index[domain.ColDate]
	metricIdx := make([]int, len(domain.NumericColumns))
	for i, col := range domain.NumericColumns {
		metricIdx[i] = index[col]
	}

	dates := &dateParser{spreadsheetSerial: opts.SpreadsheetDates}
	records := make([]domain.Record, 0, len(data))
	for _, row := range data {
		stats.DataRows++

		rawDate := cell(row, dateIdx)
		if isSummaryRow(rawDate) {
			stats.SummaryRows++
			continue
		}

		rec := domain.NewRecord(tag)
		rec.Date = dates.parse(rawDate)
		for i, col := range domain.NumericColumns {
			rec.SetMetric(col, parseNumber(cell(row, metricIdx[i])))
		}

		if rec.IsEmpty() {
			stats.EmptyRows++
			continue
		}
		records = append(records, rec)
	}

	return records, stats, nil
}

// headerNames names empty header cells "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ... so every column can be addressed by name. A
// suffixed name that is itself taken gets suffixed again ("a.1" -> "a.1.1").
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	for i, name := range raw {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		for n := counts[name]; n > 0; n = counts[name] {
			counts[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		}
		counts[name]++
		names[i] = name
	}
	return names
}

// columnIndex maps the analysis columns to their position. A leading unnamed
// index column and any extra columns are ignored.
func columnIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := positions[name]; dup {
			return nil, apperrors.NewSchemaError(fmt.Sprintf("column %q appears more than once", name), nil)
		}
		positions[name] = i
	}

	index := make(map[string]int, len(domain.NumericColumns)+1)
	var missing []string
	for _, col := range append([]string{domain.ColDate}, domain.NumericColumns...) {
		pos, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[col] = pos
	}

	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}
	return index, nil
}

// isSummaryRow reports whether the raw Date text marks a footer row
func isSummaryRow(rawDate string) bool {
	for _, marker := range summaryMarkers {
		if strings.Contains(rawDate, marker) {
			return true
		}
	}
	return false
}

// cell returns row[i], or "" for cells past the end of a short row
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseNumber returns NaN for empty or non-numeric cells
func parseNumber(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
