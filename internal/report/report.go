package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"ivtcli/internal/analysis"
	"ivtcli/internal/loader"
	"ivtcli/pkg/contracts/domain"
)

// Section titles, in print order
const (
	TitleBenchmark   = "Valid App Statistical Benchmark"
	TitleCorrelation = "Correlation with IVT"
	TitleDeviation   = "Invalid App Deviation from Benchmark"
	TitleFlagging    = "IVT Flagging Timeline"
	TitleSkipped     = "Skipped Sources"
)

// CorrelationNote is printed above the correlation ranking
const CorrelationNote = "This shows the most influential metric driving the IVT score."

// Column headers shared with the exporters
const (
	ColMedian            = "Median"
	ColStatus            = "Status"
	ColFirstIVTTime      = "First_IVT_Time"
	ColCorrelation       = "IVT"
	TimestampLayout      = "2006-01-02 15:04:05"
	floatFormat          = "%.4f"
	deviationColumnLabel = "vs. Valid %s Pctl (%%)"
)

// PercentileColumn names the benchmark upper quantile column, e.g. "95th Percentile"
func PercentileColumn(p float64) string {
	return Ordinal(p) + " Percentile"
}

// DeviationColumn names the deviation percentage column, e.g. "vs. Valid 95th Pctl (%)"
func DeviationColumn(p float64) string {
	return fmt.Sprintf(deviationColumnLabel, Ordinal(p))
}

// AvgColumn names a per-app mean column, e.g. "Avg. idfa_ua_ratio"
func AvgColumn(metric string) string {
	return "Avg. " + metric
}

// DeviationColumns returns the deviation table header: Status, the compared
// metric and its percentage, then the remaining fraud metrics in reverse order
func DeviationColumns(s *analysis.Summary) []string {
	metric := domain.ColIDFAUARatio
	if len(s.Deviations) > 0 {
		metric = s.Deviations[0].Metric
	}
	cols := []string{ColStatus, AvgColumn(metric), DeviationColumn(s.Percentile)}
	for _, m := range SecondaryMetrics(s, metric) {
		cols = append(cols, AvgColumn(m))
	}
	return cols
}

// SecondaryMetrics lists the benchmarked metrics except exclude, last one first
func SecondaryMetrics(s *analysis.Summary, exclude string) []string {
	var out []string
	for i := len(s.Benchmarks) - 1; i >= 0; i-- {
		if m := s.Benchmarks[i].Metric; m != exclude {
			out = append(out, m)
		}
	}
	return out
}

// Ordinal renders a quantile as an English ordinal percentile, 0.95 -> "95th"
func Ordinal(p float64) string {
	pct := math.Round(p*100*1e6) / 1e6
	text := strconv.FormatFloat(pct, 'f', -1, 64)
	if pct != math.Trunc(pct) {
		return text + "th"
	}
	n := int64(pct)
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return text + "th"
	case n%10 == 1:
		return text + "st"
	case n%10 == 2:
		return text + "nd"
	case n%10 == 3:
		return text + "rd"
	default:
		return text + "th"
	}
}

// FormatFloat renders a metric value with four decimals; NaN prints as "NaN"
func FormatFloat(v float64) string {
	return fmt.Sprintf(floatFormat, v)
}

// Write prints the four reports, and the skipped sources when any file failed
func Write(w io.Writer, s *analysis.Summary, failed []loader.FileResult) error {
	sections := []func(io.Writer, *analysis.Summary) error{
		WriteBenchmarks,
		WriteCorrelations,
		WriteDeviations,
		WriteFlags,
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w, s); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return WriteSkipped(w, failed)
	}
	return nil
}

func heading(w io.Writer, n int, title string) error {
	_, err := fmt.Fprintf(w, "=== %d. %s ===\n", n, title)
	return err
}

// WriteBenchmarks prints the median and upper percentile of each fraud metric
func WriteBenchmarks(w io.Writer, s *analysis.Summary) error {
	if err := heading(w, 1, TitleBenchmark); err != nil {
		return err
	}
	t := &table{columns: []string{ColMedian, PercentileColumn(s.Percentile)}}
	for _, b := range s.Benchmarks {
		t.index = append(t.index, b.Metric)
		t.rows = append(t.rows, []string{FormatFloat(b.Median), FormatFloat(b.P95)})
	}
	return t.render(w)
}

// WriteCorrelations prints the correlation ranking, strongest first
func WriteCorrelations(w io.Writer, s *analysis.Summary) error {
	if err := heading(w, 2, TitleCorrelation); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, CorrelationNote); err != nil {
		return err
	}
	t := &table{columns: []string{ColCorrelation}, noHeader: true}
	for _, c := range s.Correlations {
		t.index = append(t.index, c.Metric)
		t.rows = append(t.rows, []string{FormatFloat(c.Coefficient)})
	}
	return t.render(w)
}

// WriteDeviations prints the per-app averages and the deviation percentage
func WriteDeviations(w io.Writer, s *analysis.Summary) error {
	if err := heading(w, 3, TitleDeviation); err != nil {
		return err
	}
	if len(s.Deviations) == 0 {
		_, err := fmt.Fprintln(w, "No invalid apps loaded.")
		return err
	}

	metric := s.Deviations[0].Metric
	others := SecondaryMetrics(s, metric)
	t := &table{columns: DeviationColumns(s)}
	for _, d := range s.Deviations {
		row := []string{string(d.Status), FormatFloat(d.Mean), d.P95Deviation}
		for _, m := range others {
			row = append(row, FormatFloat(d.Means[m]))
		}
		t.index = append(t.index, d.AppID)
		t.rows = append(t.rows, row)
	}
	return t.render(w)
}

// WriteFlags prints when each invalid app first crossed the IVT threshold
func WriteFlags(w io.Writer, s *analysis.Summary) error {
	if err := heading(w, 4, TitleFlagging); err != nil {
		return err
	}
	if len(s.Flags) == 0 {
		_, err := fmt.Fprintln(w, "No invalid app crossed the IVT threshold.")
		return err
	}
	t := &table{columns: []string{domain.ColAppID, ColFirstIVTTime}, noIndex: true}
	for _, f := range s.Flags {
		t.rows = append(t.rows, []string{f.AppID, f.FirstIVTTime.Format(TimestampLayout)})
	}
	return t.render(w)
}

// WriteSkipped lists the source files that could not be loaded
func WriteSkipped(w io.Writer, failed []loader.FileResult) error {
	if _, err := fmt.Fprintf(w, "=== %s (%d) ===\n", TitleSkipped, len(failed)); err != nil {
		return err
	}
	t := &table{columns: []string{"File", domain.ColAppID, "Error"}, noIndex: true}
	for _, f := range failed {
		reason := "unknown error"
		if f.Err != nil {
			reason = strings.ReplaceAll(f.Err.Error(), "\n", " ")
		}
		t.rows = append(t.rows, []string{f.Source.File, f.Source.AppID, reason})
	}
	return t.render(w)
}
