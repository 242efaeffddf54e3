package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivtcli/internal/config"
	"ivtcli/internal/infrastructure"
	"ivtcli/internal/pipeline"
	"ivtcli/pkg/contracts"
)

// shutdownTimeout bounds the final flush of traces and metrics
const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cliFlags holds the command-line overrides applied on top of the loaded configuration
type cliFlags struct {
	configPath  string
	outputDir   string
	chartFile   string
	discover    bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet(config.AppSlug, flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to config file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&f.outputDir, "out", "", "output directory for the chart and exports")
	fs.StringVar(&f.chartFile, "chart", "", "chart file name, relative to the output directory")
	fs.BoolVar(&f.discover, "discover", false, "discover App (Valid|Invalid) <n> exports in the data directory")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// apply overlays the flags onto cfg and re-checks the result
func (f *cliFlags) apply(cfg *config.Config) error {
	if f.outputDir != "" {
		cfg.Paths.OutputDir = f.outputDir
	}
	if f.chartFile != "" {
		cfg.Chart.Output = f.chartFile
		cfg.Chart.Enabled = true
	}
	if f.discover {
		cfg.Discover = true
	}
	return cfg.Validate()
}

// run executes one report and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	if flags.showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(stderr, "Invalid command-line options: %v\n", err)
		return 1
	}

	paths, err := config.NewPaths("", cfg.Paths)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to resolve paths: %v\n", err)
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "Failed to create directories: %v\n", err)
		return 1
	}
	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.LogPath(cfg.Logging.FilePath)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)

	ctx = infrastructure.ContextWithTraceID(ctx)
	logger.InfoContext(ctx, "Starting report",
		slog.String("version", contracts.GetVersionString()),
		slog.Bool("discover", cfg.Discover),
		slog.Int("sources", len(cfg.Sources)))
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	runner, err := pipeline.New(pipeline.Options{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Telemetry: telemetry,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create pipeline", slog.String("error", err.Error()))
		return 1
	}

	state, runErr := runner.Run(ctx, stdout)

	// Metrics are written for failed runs too
	if cfg.Telemetry.MetricsFile != "" {
		metricsPath := paths.OutputPath(cfg.Telemetry.MetricsFile)
		if err := telemetry.WriteMetricsTextfile(metricsPath); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics file",
				slog.String("path", metricsPath),
				slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "Report failed", slog.String("error", runErr.Error()))
		return 1
	}

	logger.InfoContext(ctx, "Report complete",
		slog.Int("rows", state.Dataset.Len()),
		slog.String("chart", state.ChartPath),
		slog.Int("exports", len(state.Exports)))
	return 0
}
