package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"2006-01-02 3:04 PM",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// dateParser parses the Date column of one file. The first text value that
// matches a layout fixes the layout for the rest of the file; later values in
// another format become missing.
type dateParser struct {
	spreadsheetSerial bool
	layout            string
}

// parse converts a cell to a timestamp. Unparseable or empty cells return
// the zero time. When spreadsheetSerial is set, plain numbers are read as
// Excel date serials.
func (p *dateParser) parse(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	if p.spreadsheetSerial {
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			if serial <= 0 {
				return time.Time{}
			}
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t
			}
			return time.Time{}
		}
	}

	if p.layout != "" {
		t, err := time.Parse(p.layout, value)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			p.layout = layout
			return t
		}
	}
	return time.Time{}
}
