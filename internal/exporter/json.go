package exporter

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"ivtcli/internal/analysis"
	"ivtcli/internal/files"
	"ivtcli/internal/loader"
)

// JSON documents use null for undefined statistics since NaN is not valid JSON

type jsonBenchmark struct {
	Metric string   `json:"metric"`
	Median *float64 `json:"median"`
	P95    *float64 `json:"p95"`
}

type jsonCorrelation struct {
	Metric      string   `json:"metric"`
	Coefficient *float64 `json:"coefficient"`
}

type jsonDeviation struct {
	AppID        string              `json:"app_id"`
	Status       string              `json:"status"`
	Metric       string              `json:"metric"`
	Mean         *float64            `json:"mean"`
	P95Deviation string              `json:"vs_valid_p95_pct"`
	Means        map[string]*float64 `json:"means"`
}

type jsonFlag struct {
	AppID        string    `json:"app_id"`
	FirstIVTTime time.Time `json:"first_ivt_time"`
}

type jsonSkipped struct {
	File   string `json:"file"`
	AppID  string `json:"app_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Document is the JSON export of one run
type Document struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	RunID        string            `json:"run_id,omitempty"`
	Percentile   float64           `json:"percentile"`
	Benchmarks   []jsonBenchmark   `json:"benchmarks"`
	Correlations []jsonCorrelation `json:"correlations"`
	Deviations   []jsonDeviation   `json:"deviations"`
	Flags        []jsonFlag        `json:"flags"`
	Skipped      []jsonSkipped     `json:"skipped,omitempty"`
}

// NewDocument converts a summary into its JSON form
func NewDocument(s *analysis.Summary, failed []loader.FileResult, runID string, now time.Time) Document {
	doc := Document{
		GeneratedAt:  now.UTC(),
		RunID:        runID,
		Percentile:   s.Percentile,
		Benchmarks:   make([]jsonBenchmark, 0, len(s.Benchmarks)),
		Correlations: make([]jsonCorrelation, 0, len(s.Correlations)),
		Deviations:   make([]jsonDeviation, 0, len(s.Deviations)),
		Flags:        make([]jsonFlag, 0, len(s.Flags)),
	}

	for _, b := range s.Benchmarks {
		doc.Benchmarks = append(doc.Benchmarks, jsonBenchmark{Metric: b.Metric, Median: nullable(b.Median), P95: nullable(b.P95)})
	}
	for _, c := range s.Correlations {
		doc.Correlations = append(doc.Correlations, jsonCorrelation{Metric: c.Metric, Coefficient: nullable(c.Coefficient)})
	}
	for _, d := range s.Deviations {
		means := make(map[string]*float64, len(d.Means))
		for k, v := range d.Means {
			means[k] = nullable(v)
		}
		doc.Deviations = append(doc.Deviations, jsonDeviation{
			AppID:        d.AppID,
			Status:       string(d.Status),
			Metric:       d.Metric,
			Mean:         nullable(d.Mean),
			P95Deviation: d.P95Deviation,
			Means:        means,
		})
	}
	for _, f := range s.Flags {
		doc.Flags = append(doc.Flags, jsonFlag{AppID: f.AppID, FirstIVTTime: f.FirstIVTTime})
	}
	for _, res := range failed {
		skipped := jsonSkipped{File: res.Source.File, AppID: res.Source.AppID, Status: string(res.Source.Status)}
		if res.Err != nil {
			skipped.Error = res.Err.Error()
		}
		doc.Skipped = append(doc.Skipped, skipped)
	}
	return doc
}

// JSONWriter exports the reports as an indented JSON document
type JSONWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewJSONWriter creates a JSON exporter
func NewJSONWriter(manager *files.Manager, logger *slog.Logger) *JSONWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONWriter{files: manager, logger: logger}
}

// Write stores doc at filePath
func (w *JSONWriter) Write(filePath string, doc Document) (string, error) {
	w.logger.Info("Writing JSON report", slog.String("file_path", filePath))

	return w.files.WriteWith(filePath, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
}
