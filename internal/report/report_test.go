package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivtcli/internal/analysis"
	apperrors "ivtcli/internal/errors"
	"ivtcli/internal/loader"
	"ivtcli/pkg/contracts/domain"
)

func sampleSummary() *analysis.Summary {
	return &analysis.Summary{
		Percentile: 0.95,
		Benchmarks: []domain.Benchmark{
			{Metric: domain.ColRequestsPerIDFA, Median: 10, P95: 20},
			{Metric: domain.ColIDFAIPRatio, Median: 1.5, P95: 2.25},
			{Metric: domain.ColIDFAUARatio, Median: 0.55, P95: 0.955},
		},
		Correlations: []domain.Correlation{
			{Metric: domain.ColRequestsPerIDFA, Coefficient: 0.98431},
			{Metric: domain.ColIDFAUARatio, Coefficient: -0.12},
		},
		Deviations: []domain.Deviation{
			{
				AppID: "App Invalid 2", Status: domain.StatusInvalid, Metric: domain.ColIDFAUARatio,
				Mean: 1.91, P95Deviation: "100.00%",
				Means: map[string]float64{domain.ColIDFAUARatio: 1.91, domain.ColIDFAIPRatio: 3, domain.ColRequestsPerIDFA: 40},
			},
			{
				AppID: "App Invalid 1", Status: domain.StatusInvalid, Metric: domain.ColIDFAUARatio,
				Mean: math.NaN(), P95Deviation: "nan%",
				Means: map[string]float64{domain.ColIDFAUARatio: math.NaN(), domain.ColIDFAIPRatio: 1, domain.ColRequestsPerIDFA: 5.5},
			},
		},
		Flags: []domain.Flag{
			{AppID: "App Invalid 1", FirstIVTTime: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)},
			{AppID: "App Invalid 10", FirstIVTTime: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestWriteBenchmarks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBenchmarks(&buf, sampleSummary()))

	want := "=== 1. Valid App Statistical Benchmark ===\n" +
		"                    Median  95th Percentile\n" +
		"requests_per_idfa  10.0000          20.0000\n" +
		"idfa_ip_ratio       1.5000           2.2500\n" +
		"idfa_ua_ratio       0.5500           0.9550\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCorrelations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCorrelations(&buf, sampleSummary()))

	want := "=== 2. Correlation with IVT ===\n" +
		CorrelationNote + "\n" +
		"requests_per_idfa   0.9843\n" +
		"idfa_ua_ratio      -0.1200\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteDeviations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDeviations(&buf, sampleSummary()))

	want := "=== 3. Invalid App Deviation from Benchmark ===\n" +
		"                Status  Avg. idfa_ua_ratio  vs. Valid 95th Pctl (%)  Avg. idfa_ip_ratio  Avg. requests_per_idfa\n" +
		"App Invalid 2  Invalid              1.9100                  100.00%              3.0000                 40.0000\n" +
		"App Invalid 1  Invalid                 NaN                     nan%              1.0000                  5.5000\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFlags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFlags(&buf, sampleSummary()))

	want := "=== 4. IVT Flagging Timeline ===\n" +
		"        App_ID       First_IVT_Time\n" +
		" App Invalid 1  2024-05-01 03:00:00\n" +
		"App Invalid 10  2024-05-02 00:00:00\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_EmptySections(t *testing.T) {
	s := sampleSummary()
	s.Deviations = nil
	s.Flags = nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, nil))

	out := buf.String()
	assert.Contains(t, out, "No invalid apps loaded.")
	assert.Contains(t, out, "No invalid app crossed the IVT threshold.")
	assert.NotContains(t, out, TitleSkipped)
}

func TestWrite_OrderAndSkipped(t *testing.T) {
	failed := []loader.FileResult{
		{
			Source: domain.Source{File: "App Valid 2.csv", SourceTag: domain.SourceTag{Status: domain.StatusValid, AppID: "App Valid 2"}},
			Err:    apperrors.NewNotFoundError("file App Valid 2.csv"),
		},
		{
			Source: domain.Source{File: "App Invalid 3.csv", SourceTag: domain.SourceTag{Status: domain.StatusInvalid, AppID: "App Invalid 3"}},
			Err:    errors.New("bad\nline"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSummary(), failed))
	out := buf.String()

	titles := []string{TitleBenchmark, TitleCorrelation, TitleDeviation, TitleFlagging, TitleSkipped + " (2)"}
	last := -1
	for _, title := range titles {
		idx := strings.Index(out, title)
		require.GreaterOrEqual(t, idx, 0, title)
		assert.Greater(t, idx, last, "%s out of order", title)
		last = idx
	}

	assert.Contains(t, out, "App Valid 2.csv")
	assert.Contains(t, out, "NOT_FOUND")
	assert.Contains(t, out, "bad line")
}

func TestOrdinal(t *testing.T) {
	tests := map[float64]string{
		0.95:  "95th",
		0.9:   "90th",
		0.99:  "99th",
		0.01:  "1st",
		0.02:  "2nd",
		0.03:  "3rd",
		0.11:  "11th",
		0.51:  "51st",
		0.975: "97.5th",
		0.29:  "29th",
	}
	for p, want := range tests {
		assert.Equal(t, want, Ordinal(p), "p=%v", p)
	}
}

func TestColumnNames(t *testing.T) {
	assert.Equal(t, "95th Percentile", PercentileColumn(0.95))
	assert.Equal(t, "vs. Valid 95th Pctl (%)", DeviationColumn(0.95))
	assert.Equal(t, []string{
		"Status", "Avg. idfa_ua_ratio", "vs. Valid 95th Pctl (%)", "Avg. idfa_ip_ratio", "Avg. requests_per_idfa",
	}, DeviationColumns(sampleSummary()))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	assert.Error(t, Write(failingWriter{}, sampleSummary(), nil))
}
