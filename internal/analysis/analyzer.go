package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"ivtcli/internal/config"
	"ivtcli/internal/dataset"
	"ivtcli/internal/infrastructure"
	"ivtcli/pkg/contracts/domain"
)

// Summary bundles the four reports of one run
type Summary struct {
	Percentile   float64              `json:"percentile"`
	Benchmarks   []domain.Benchmark   `json:"benchmarks"`
	Correlations []domain.Correlation `json:"correlations"`
	Deviations   []domain.Deviation   `json:"deviations"`
	Flags        []domain.Flag        `json:"flags"`
}

// Benchmark returns the benchmark of metric, if computed
func (s *Summary) Benchmark(metric string) (domain.Benchmark, bool) {
	for _, b := range s.Benchmarks {
		if b.Metric == metric {
			return b, true
		}
	}
	return domain.Benchmark{}, false
}

// Analyzer computes benchmark, correlation, deviation and flagging reports
type Analyzer struct {
	fraudMetrics    []string
	deviationMetric string
	threshold       float64
	percentile      float64
	logger          *slog.Logger
}

// New creates an Analyzer from the analysis settings
func New(cfg config.AnalysisConfig, logger *slog.Logger) *Analyzer {
	metrics := cfg.FraudMetrics
	if len(metrics) == 0 {
		metrics = domain.FraudMetrics
	}
	deviation := cfg.DeviationMetric
	if deviation == "" {
		deviation = domain.ColIDFAUARatio
	}
	percentile := cfg.Percentile
	if percentile == 0 {
		percentile = config.DefaultPercentile
	}
	return &Analyzer{
		fraudMetrics:    metrics,
		deviationMetric: deviation,
		threshold:       cfg.IVTThreshold,
		percentile:      percentile,
		logger:          infrastructure.WithComponent(logger, "analysis"),
	}
}

// Run computes every report over the unified dataset
func (a *Analyzer) Run(ctx context.Context, ds *dataset.Dataset) *Summary {
	valid := ds.Filter(domain.StatusValid)
	if valid.Len() == 0 {
		a.logger.WarnContext(ctx, "No valid traffic loaded, benchmarks are undefined")
	}

	benchmarks := a.Benchmarks(valid)
	summary := &Summary{
		Percentile:   a.percentile,
		Benchmarks:   benchmarks,
		Correlations: a.Correlations(ds),
		Flags:        a.Flags(ds),
	}

	p95 := math.NaN()
	if b, ok := summary.Benchmark(a.deviationMetric); ok {
		p95 = b.P95
	}
	summary.Deviations = a.Deviations(ds, p95)

	a.logger.InfoContext(ctx, "Analysis complete",
		slog.Int("rows", ds.Len()),
		slog.Int("valid_rows", valid.Len()),
		slog.Int("invalid_apps", len(summary.Deviations)),
		slog.Int("flagged_apps", len(summary.Flags)))

	return summary
}

// Benchmarks summarises the distribution of each fraud metric over valid rows.
// valid must already be restricted to valid traffic.
func (a *Analyzer) Benchmarks(valid *dataset.Dataset) []domain.Benchmark {
	out := make([]domain.Benchmark, 0, len(a.fraudMetrics))
	for _, metric := range a.fraudMetrics {
		values := valid.Column(metric)
		out = append(out, domain.Benchmark{
			Metric: metric,
			Median: Median(values),
			P95:    Percentile(values, a.percentile),
		})
	}
	return out
}

// Correlations ranks the fraud metrics by Pearson correlation with IVT over
// every row, strongest positive first. Undefined coefficients sort last.
func (a *Analyzer) Correlations(ds *dataset.Dataset) []domain.Correlation {
	ivt := ds.Column(domain.ColIVT)

	out := make([]domain.Correlation, 0, len(a.fraudMetrics))
	for _, metric := range a.fraudMetrics {
		if metric == domain.ColIVT {
			continue
		}
		out = append(out, domain.Correlation{
			Metric:      metric,
			Coefficient: Pearson(ds.Column(metric), ivt),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Coefficient, out[j].Coefficient
		switch {
		case math.IsNaN(ci):
			return false
		case math.IsNaN(cj):
			return true
		default:
			return ci > cj
		}
	})
	return out
}

// Deviations averages the fraud metrics per invalid app and compares the
// deviation metric with the valid benchmark p95.
// Rows are ordered by that average, ascending, then by App_ID.
func (a *Analyzer) Deviations(ds *dataset.Dataset, p95 float64) []domain.Deviation {
	apps, groups := ds.Filter(domain.StatusInvalid).GroupByApp()

	out := make([]domain.Deviation, 0, len(apps))
	for _, app := range apps {
		g := groups[app]
		means := make(map[string]float64, len(a.fraudMetrics))
		for _, metric := range a.fraudMetrics {
			means[metric] = Mean(g.Column(metric))
		}

		mean := means[a.deviationMetric]
		out = append(out, domain.Deviation{
			AppID:        app,
			Status:       domain.StatusInvalid,
			Metric:       a.deviationMetric,
			Mean:         mean,
			P95Deviation: FormatPercent(PercentDiff(mean, p95)),
			Means:        means,
		})
	}

	// apps arrive sorted, so the stable sort breaks ties by App_ID
	sort.SliceStable(out, func(i, j int) bool {
		return lessNaNLast(out[i].Mean, out[j].Mean)
	})
	return out
}

// Flags finds, per invalid app, the earliest dated row whose IVT is above the
// threshold. Apps that never cross it are omitted.
func (a *Analyzer) Flags(ds *dataset.Dataset) []domain.Flag {
	first := make(map[string]domain.Flag)
	for _, r := range ds.Filter(domain.StatusInvalid).Records {
		if !(r.IVT > a.threshold) || !r.HasDate() {
			continue
		}
		if f, ok := first[r.AppID]; !ok || r.Date.Before(f.FirstIVTTime) {
			first[r.AppID] = domain.Flag{AppID: r.AppID, FirstIVTTime: r.Date}
		}
	}

	out := make([]domain.Flag, 0, len(first))
	for _, f := range first {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstIVTTime.Equal(out[j].FirstIVTTime) {
			return out[i].AppID < out[j].AppID
		}
		return out[i].FirstIVTTime.Before(out[j].FirstIVTTime)
	})
	return out
}

// PercentDiff returns (value - base) / base * 100
func PercentDiff(value, base float64) float64 {
	return (value - base) / base * 100
}

// FormatPercent renders a percentage with two decimals, e.g. "100.00%".
// Undefined and infinite values read "nan%", "inf%" and "-inf%".
func FormatPercent(pct float64) string {
	switch {
	case math.IsNaN(pct):
		return "nan%"
	case math.IsInf(pct, 1):
		return "inf%"
	case math.IsInf(pct, -1):
		return "-inf%"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// lessNaNLast orders a before b with NaN after every number
func lessNaNLast(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a < b
	}
}
