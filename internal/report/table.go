package report

import (
	"io"
	"strings"
	"unicode/utf8"
)

// columnGap separates adjacent columns
const columnGap = "  "

// table is a plain-text grid. The optional index column is left-aligned and
// every other column right-aligned, each padded to its widest cell.
type table struct {
	columns []string
	index   []string
	rows    [][]string
	noIndex bool
	// noHeader omits the header line, used for single-column listings
	noHeader bool
}

func (t *table) render(w io.Writer) error {
	var b strings.Builder

	indexWidth := 0
	if !t.noIndex {
		for _, s := range t.index {
			indexWidth = max(indexWidth, utf8.RuneCountInString(s))
		}
	}

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		if !t.noHeader {
			widths[i] = utf8.RuneCountInString(c)
		}
		for _, row := range t.rows {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}

	line := func(index string, cells []string) {
		parts := make([]string, 0, len(cells)+1)
		if !t.noIndex {
			parts = append(parts, padRight(index, indexWidth))
		}
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts = append(parts, padLeft(cell, w))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, columnGap), " "))
		b.WriteByte('\n')
	}

	if !t.noHeader {
		line("", t.columns)
	}
	for i, row := range t.rows {
		index := ""
		if i < len(t.index) {
			index = t.index[i]
		}
		line(index, row)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
