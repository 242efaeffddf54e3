package loader

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ivtcli/internal/config"
	apperrors "ivtcli/internal/errors"
	"ivtcli/internal/infrastructure"
	"ivtcli/internal/validation"
	"ivtcli/pkg/contracts/domain"
)

// Options configures a Loader. A nil Logger or Tracer falls back to the global logger and a no-op tracer.
type Options struct {
	HeaderLines int
	Paths       *config.Paths
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Metrics     *infrastructure.PipelineMetrics
}

// Loader reads tagged source files into unified records
type Loader struct {
	headerLines int
	paths       *config.Paths
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *infrastructure.PipelineMetrics
	validator   *validation.FileValidator
}

// New creates a Loader
func New(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return &Loader{
		headerLines: opts.HeaderLines,
		paths:       opts.Paths,
		logger:      infrastructure.WithComponent(logger, "loader"),
		tracer:      tracer,
		metrics:     opts.Metrics,
		validator:   validation.NewFileValidator(logger),
	}
}

// FileResult is the outcome of loading one source
type FileResult struct {
	Source   domain.Source
	Path     string
	Records  []domain.Record
	Stats    Stats
	Duration time.Duration
	Err      error
}

// Rows returns the number of records the file contributed
func (r FileResult) Rows() int {
	return len(r.Records)
}

// Report collects one FileResult per requested source, in input order
type Report struct {
	Results []FileResult
}

// Tables returns the records of every loaded file, in input order
func (r *Report) Tables() [][]domain.Record {
	tables := make([][]domain.Record, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			tables = append(tables, res.Records)
		}
	}
	return tables
}

// Failed returns the results of files that were skipped
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Loaded returns how many files were read successfully
func (r *Report) Loaded() int {
	return len(r.Results) - len(r.Failed())
}

// LoadAll loads every source in order. A file that cannot be read is skipped
// and its error kept in the report; only cancellation stops the loop, in which
// case the partial report is returned with ctx.Err().
func (l *Loader) LoadAll(ctx context.Context, sources []domain.Source) (*Report, error) {
	report := &Report{Results: make([]FileResult, 0, len(sources))}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := l.loadSource(ctx, src)
		report.Results = append(report.Results, res)

		l.metrics.RecordFile(ctx, string(src.Status), res.Rows(), res.Err)
		if res.Err != nil {
			infrastructure.WithError(l.logger, res.Err).WarnContext(ctx, "Skipping source file",
				slog.String("file", res.Path),
				slog.String("app_id", src.AppID),
				slog.String("error_type", string(apperrors.TypeOf(res.Err))))
			continue
		}

		l.logger.InfoContext(ctx, "Loaded source file",
			slog.String("file", res.Path),
			slog.String("app_id", src.AppID),
			slog.String("status", string(src.Status)),
			slog.Int("rows", res.Rows()),
			slog.Int("summary_rows_dropped", res.Stats.SummaryRows),
			slog.Int("empty_rows_dropped", res.Stats.EmptyRows),
			slog.Duration("duration", res.Duration))
	}

	return report, nil
}

func (l *Loader) loadSource(ctx context.Context, src domain.Source) FileResult {
	start := time.Now()
	path := l.resolve(src.File)

	ctx, span := l.tracer.Start(ctx, "loader.LoadFile", trace.WithAttributes(
		attribute.String("file", path),
		attribute.String("app_id", src.AppID),
		attribute.String("status", string(src.Status)),
	))
	defer span.End()

	records, stats, err := l.LoadFile(path, src.SourceTag)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetAttributes(attribute.Int("rows", len(records)))
	}

	return FileResult{
		Source:   src,
		Path:     path,
		Records:  records,
		Stats:    stats,
		Duration: time.Since(start),
		Err:      err,
	}
}

// LoadFile reads and normalizes a single file
func (l *Loader) LoadFile(path string, tag domain.SourceTag) ([]domain.Record, Stats, error) {
	if err := l.validator.ValidateSourceFile(path); err != nil {
		return nil, Stats{}, err
	}

	rows, err := readRows(path)
	if err != nil {
		return nil, Stats{}, err
	}

	records, stats, err := Normalize(rows, tag, NormalizeOptions{
		HeaderLines:      l.headerLines,
		SpreadsheetDates: strings.EqualFold(filepath.Ext(path), ".xlsx"),
	})
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			appErr.WithContext("path", path)
		}
		return nil, stats, err
	}

	return records, stats, nil
}

func (l *Loader) resolve(file string) string {
	if l.paths == nil {
		return file
	}
	return l.paths.SourcePath(file)
}
