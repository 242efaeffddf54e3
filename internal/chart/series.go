package chart

import (
	"math"
	"sort"
	"strconv"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"ivtcli/internal/dataset"
	"ivtcli/pkg/contracts/domain"
)

// points is one plottable line, ordered by time
type points struct {
	times  []time.Time
	values []float64
}

func (p *points) Len() int           { return len(p.times) }
func (p *points) Less(i, j int) bool { return p.times[i].Before(p.times[j]) }
func (p *points) Swap(i, j int) {
	p.times[i], p.times[j] = p.times[j], p.times[i]
	p.values[i], p.values[j] = p.values[j], p.values[i]
}

// panelData holds the IVT line and the log10 idfa_ua_ratio line of one app
type panelData struct {
	app   string
	ivt   points
	ratio points
}

func (d *panelData) empty() bool {
	return d.ivt.Len() == 0 && d.ratio.Len() == 0
}

// collect extracts the dated, present values of one app. Ratios that are not
// positive cannot be drawn on a log axis and are dropped.
func collect(ds *dataset.Dataset, app string) *panelData {
	d := &panelData{app: app}
	for _, r := range ds.App(app).Records {
		if !r.HasDate() {
			continue
		}
		if !math.IsNaN(r.IVT) {
			d.ivt.times = append(d.ivt.times, r.Date)
			d.ivt.values = append(d.ivt.values, r.IVT)
		}
		if ratio := r.IDFAUARatio; !math.IsNaN(ratio) && ratio > 0 && !math.IsInf(ratio, 0) {
			d.ratio.times = append(d.ratio.times, r.Date)
			d.ratio.values = append(d.ratio.values, math.Log10(ratio))
		}
	}
	sort.Stable(&d.ivt)
	sort.Stable(&d.ratio)
	return d
}

// timeRange returns the earliest and latest timestamp over every panel
func timeRange(panels []*panelData) (time.Time, time.Time, bool) {
	var lo, hi time.Time
	found := false
	for _, p := range panels {
		for _, line := range []points{p.ivt, p.ratio} {
			if line.Len() == 0 {
				continue
			}
			first, last := line.times[0], line.times[line.Len()-1]
			if !found || first.Before(lo) {
				lo = first
			}
			if !found || last.After(hi) {
				hi = last
			}
			found = true
		}
	}
	return lo, hi, found
}

// xRange is the shared x axis range; a single instant is widened by an hour
// on each side so the axis has a non-zero span
func xRange(lo, hi time.Time) *gochart.ContinuousRange {
	if !hi.After(lo) {
		lo = lo.Add(-time.Hour)
		hi = hi.Add(time.Hour)
	}
	return &gochart.ContinuousRange{Min: gochart.TimeToFloat64(lo), Max: gochart.TimeToFloat64(hi)}
}

// valueRange pads the extent of values by 5%, or by 0.5 when flat
func valueRange(values []float64) *gochart.ContinuousRange {
	if len(values) == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return &gochart.ContinuousRange{Min: lo - 0.5, Max: hi + 0.5}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// powerLabel labels a log10 axis value with its linear value. Explicit
// secondary ticks are avoided: go-chart sizes that axis from the primary ticks.
func powerLabel(v interface{}) string {
	exp, ok := v.(float64)
	if !ok {
		return ""
	}
	return formatPower(exp)
}

// formatPower renders 10^exp in plain notation, e.g. -2 -> "0.01"
func formatPower(exp float64) string {
	v := math.Pow(10, exp)
	if exp == math.Trunc(exp) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// Title is the heading of one app panel
func Title(app string) string {
	return app + ": IVT and IDFA-UA Ratio Over Time"
}

const ratioAxisName = domain.ColIDFAUARatio + " (log scale)"
