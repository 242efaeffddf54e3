package dataset

import (
	"sort"

	"ivtcli/pkg/contracts/domain"
)

// Dataset is the unified table of every loaded source
type Dataset struct {
	Records []domain.Record
}

// Merge concatenates tables in input order, keeping the row order of each.
// Rows are not deduplicated.
func Merge(tables ...[]domain.Record) *Dataset {
	total := 0
	for _, t := range tables {
		total += len(t)
	}

	records := make([]domain.Record, 0, total)
	for _, t := range tables {
		records = append(records, t...)
	}
	return &Dataset{Records: records}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Filter returns the rows with the given status, in order
func (d *Dataset) Filter(status domain.Status) *Dataset {
	var out []domain.Record
	for _, r := range d.Records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return &Dataset{Records: out}
}

// Column returns the values of a numeric column, NaN included.
// An unknown metric yields NaN for every row.
func (d *Dataset) Column(metric string) []float64 {
	values := make([]float64, len(d.Records))
	for i, r := range d.Records {
		values[i], _ = r.Metric(metric)
	}
	return values
}

// GroupByApp splits the rows by App_ID. The keys are sorted.
func (d *Dataset) GroupByApp() ([]string, map[string]*Dataset) {
	groups := make(map[string]*Dataset)
	for _, r := range d.Records {
		g, ok := groups[r.AppID]
		if !ok {
			g = &Dataset{}
			groups[r.AppID] = g
		}
		g.Records = append(g.Records, r)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// App returns the rows of one app, in order
func (d *Dataset) App(appID string) *Dataset {
	var out []domain.Record
	for _, r := range d.Records {
		if r.AppID == appID {
			out = append(out, r)
		}
	}
	return &Dataset{Records: out}
}

// Apps returns the distinct App_IDs in first-seen order
func (d *Dataset) Apps() []string {
	seen := make(map[string]bool)
	var apps []string
	for _, r := range d.Records {
		if !seen[r.AppID] {
			seen[r.AppID] = true
			apps = append(apps, r.AppID)
		}
	}
	return apps
}
