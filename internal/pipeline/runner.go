package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ivtcli/internal/analysis"
	"ivtcli/internal/chart"
	"ivtcli/internal/config"
	"ivtcli/internal/dataset"
	apperrors "ivtcli/internal/errors"
	"ivtcli/internal/exporter"
	"ivtcli/internal/files"
	"ivtcli/internal/infrastructure"
	"ivtcli/internal/loader"
	"ivtcli/internal/report"
	"ivtcli/internal/validation"
	"ivtcli/pkg/contracts/domain"
)

// Options wires a Runner. Paths defaults to the working directory and a nil
// Telemetry disables tracing and metrics.
type Options struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.OTelProviders
	// Now is the clock used for export timestamps
	Now func() time.Time
}

// State is what the stages of one run have produced so far
type State struct {
	Sources   []domain.Source
	Load      *loader.Report
	Dataset   *dataset.Dataset
	Summary   *analysis.Summary
	ChartPath string
	// Exports maps an export kind ("csv", "workbook", "json") to the written file
	Exports map[string]string
	Stages  []StageResult
}

// Runner executes the load, analyze and render stages for one run
type Runner struct {
	cfg       *config.Config
	paths     *config.Paths
	base      *slog.Logger
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	files     *files.Manager
	validator *validation.FileValidator
	now       func() time.Time
}

// New creates a Runner
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, apperrors.NewConfigError("pipeline requires a configuration", nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths := opts.Paths
	if paths == nil {
		p, err := config.NewPaths("", opts.Config.Paths)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to resolve paths", err)
		}
		paths = p
	}

	r := &Runner{
		cfg:       opts.Config,
		paths:     paths,
		base:      logger,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		tracer:    noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
		files:     files.NewManager(paths),
		validator: validation.NewFileValidator(logger),
		now:       opts.Now,
	}
	if opts.Telemetry != nil {
		if opts.Telemetry.Tracer != nil {
			r.tracer = opts.Telemetry.Tracer
		}
		r.metrics = opts.Telemetry.Metrics
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

func (r *Runner) stages(stdout io.Writer) []stage {
	return []stage{
		{id: StageSources, run: r.resolveSources},
		{id: StageLoad, run: r.load},
		{id: StageMerge, run: r.merge},
		{id: StageAnalyze, run: r.analyze},
		{id: StageReport, run: func(ctx context.Context, s *State) error {
			return r.writeReports(ctx, s, stdout)
		}},
		{id: StageChart, run: r.renderChart, skip: func(*State) bool { return !r.cfg.Chart.Enabled }},
		{id: StageExport, run: r.export, skip: func(*State) bool { return !r.exportsEnabled() }},
	}
}

// Run executes every stage in order and stops on the first error.
// The returned state is never nil and holds whatever was produced.
func (r *Runner) Run(ctx context.Context, stdout io.Writer) (*State, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := r.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	started := time.Now()
	state := &State{Exports: make(map[string]string)}

	attrs := []any{
		slog.Bool("discover", r.cfg.Discover),
		slog.String("data_dir", r.paths.DataDir),
		slog.String("output_dir", r.paths.OutputDir),
	}
	if otelID := infrastructure.TraceIDFromContext(ctx); otelID != "" {
		attrs = append(attrs, slog.String("otel_trace_id", otelID))
	}
	r.logger.InfoContext(ctx, "Starting analysis run", attrs...)

	for _, st := range r.stages(stdout) {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		if st.skip != nil && st.skip(state) {
			state.Stages = append(state.Stages, StageResult{ID: st.id, Status: StageStatusSkipped})
			r.logger.DebugContext(ctx, "Stage skipped", slog.String("stage", st.id))
			continue
		}

		if err := r.runStage(ctx, st, state); err != nil {
			infrastructure.RecordError(ctx, err)
			r.logger.ErrorContext(ctx, "Stage failed",
				slog.String("stage", st.id),
				slog.String("error", err.Error()))
			return state, fmt.Errorf("stage %s: %w", st.id, err)
		}
	}

	r.logger.InfoContext(ctx, "Analysis run complete",
		slog.Int("files_loaded", state.Load.Loaded()),
		slog.Int("files_failed", len(state.Load.Failed())),
		slog.Int("rows", state.Dataset.Len()),
		slog.Duration("duration", time.Since(started)))

	return state, nil
}

func (r *Runner) runStage(ctx context.Context, st stage, state *State) error {
	ctx, span := r.tracer.Start(ctx, "pipeline."+st.id, trace.WithAttributes(attribute.String("stage", st.id)))
	defer span.End()

	start := time.Now()
	err := st.run(ctx, state)
	duration := time.Since(start)

	r.metrics.RecordStage(ctx, st.id, duration, err)

	res := StageResult{ID: st.id, Status: StageStatusCompleted, Duration: duration}
	if err != nil {
		res.Status = StageStatusFailed
		res.Error = err.Error()
		infrastructure.RecordError(ctx, err)
	}
	state.Stages = append(state.Stages, res)

	r.logger.DebugContext(ctx, "Stage finished",
		slog.String("stage", st.id),
		slog.String("status", string(res.Status)),
		slog.Duration("duration", duration))
	return err
}

func (r *Runner) resolveSources(ctx context.Context, s *State) error {
	if r.cfg.Discover {
		if err := r.validator.ValidateInputDirectory(r.paths.DataDir); err != nil {
			return err
		}
		found, err := files.NewDiscovery(r.paths.BaseDir).FindSources(r.paths.DataDir)
		if err != nil {
			return apperrors.NewStorageError("failed to discover source files", err)
		}
		s.Sources = found
	} else {
		s.Sources = r.cfg.Sources
	}

	if len(s.Sources) == 0 {
		return fmt.Errorf("%w: no source files configured or found in %s", apperrors.ErrNoData, r.paths.DataDir)
	}

	if r.needsOutputDir() {
		if err := r.validator.ValidateOutputDirectory(r.paths.OutputDir); err != nil {
			return err
		}
	}

	r.logger.InfoContext(ctx, "Resolved source files", slog.Int("count", len(s.Sources)))
	return nil
}

func (r *Runner) load(ctx context.Context, s *State) error {
	l := loader.New(loader.Options{
		HeaderLines: r.cfg.Analysis.HeaderLines,
		Paths:       r.paths,
		Logger:      r.base,
		Tracer:      r.tracer,
		Metrics:     r.metrics,
	})

	rep, err := l.LoadAll(ctx, s.Sources)
	s.Load = rep
	if err != nil {
		return err
	}
	if rep.Loaded() == 0 {
		return fmt.Errorf("%w: all %d source files failed to load", apperrors.ErrNoData, len(s.Sources))
	}
	return nil
}

func (r *Runner) merge(ctx context.Context, s *State) error {
	s.Dataset = dataset.Merge(s.Load.Tables()...)
	r.logger.InfoContext(ctx, "Merged source tables",
		slog.Int("tables", s.Load.Loaded()),
		slog.Int("rows", s.Dataset.Len()))
	return nil
}

func (r *Runner) analyze(ctx context.Context, s *State) error {
	s.Summary = analysis.New(r.cfg.Analysis, r.base).Run(ctx, s.Dataset)
	return nil
}

func (r *Runner) writeReports(_ context.Context, s *State, stdout io.Writer) error {
	if err := report.Write(stdout, s.Summary, s.Load.Failed()); err != nil {
		return apperrors.NewStorageError("failed to write reports", err)
	}
	return nil
}

func (r *Runner) renderChart(ctx context.Context, s *State) error {
	renderer := chart.New(r.cfg.Chart, r.base)
	written, err := r.files.WriteWith(r.cfg.Chart.Output, func(w io.Writer) error {
		return renderer.WritePNG(ctx, w, s.Dataset)
	})
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewStorageError("failed to save chart", err)
		}
		return err
	}

	s.ChartPath = written
	r.logger.InfoContext(ctx, "Chart saved",
		slog.String("path", written),
		slog.Int("panels", len(renderer.Apps())))
	return nil
}

func (r *Runner) export(ctx context.Context, s *State) error {
	exp := r.cfg.Export
	failed := s.Load.Failed()

	if exp.CombinedCSV != "" {
		written, err := exporter.NewCSVWriter(r.files, r.base).WriteDataset(exp.CombinedCSV, s.Dataset)
		if err != nil {
			return apperrors.NewStorageError("failed to export combined dataset", err)
		}
		s.Exports["csv"] = written
	}

	if exp.Workbook != "" {
		written, err := exporter.NewWorkbookWriter(r.files, r.base).Write(exp.Workbook, s.Summary, failed)
		if err != nil {
			return apperrors.NewStorageError("failed to export report workbook", err)
		}
		s.Exports["workbook"] = written
	}

	if exp.JSON != "" {
		doc := exporter.NewDocument(s.Summary, failed, infrastructure.GetTraceID(ctx), r.now())
		written, err := exporter.NewJSONWriter(r.files, r.base).Write(exp.JSON, doc)
		if err != nil {
			return apperrors.NewStorageError("failed to export JSON report", err)
		}
		s.Exports["json"] = written
	}
	return nil
}

func (r *Runner) exportsEnabled() bool {
	e := r.cfg.Export
	return e.CombinedCSV != "" || e.Workbook != "" || e.JSON != ""
}

func (r *Runner) needsOutputDir() bool {
	return r.cfg.Chart.Enabled || r.exportsEnabled()
}
