package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivtcli/internal/config"
)

func testTelemetryConfig() config.TelemetryConfig {
	return config.TelemetryConfig{
		ServiceName:   "ivt-report-test",
		Environment:   "test",
		TraceExporter: "none",
		SampleRatio:   1.0,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestOTelInitialization tests OpenTelemetry initialization without tracing
func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(testTelemetryConfig(), "test", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider, "no exporter means no SDK tracer provider")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
	require.NotNil(t, providers.Metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_UnknownExporter(t *testing.T) {
	cfg := testTelemetryConfig()
	cfg.TraceExporter = "otlp"

	_, err := InitializeOTel(cfg, "test", discardLogger())
	assert.Error(t, err)
}

// TestTraceFileExporter checks spans are written to the configured file after shutdown
func TestTraceFileExporter(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "run.json")
	cfg := testTelemetryConfig()
	cfg.TraceExporter = "file"
	cfg.TraceFile = traceFile

	providers, err := InitializeOTel(cfg, "test", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "load")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"Name":"load"`)
	assert.Contains(t, string(content), "boom")
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

// TestPipelineMetricsTextfile records every instrument and checks the textfile output
func TestPipelineMetricsTextfile(t *testing.T) {
	providers, err := InitializeOTel(testTelemetryConfig(), "test", discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx := context.Background()
	providers.Metrics.RecordFile(ctx, "Valid", 120, nil)
	providers.Metrics.RecordFile(ctx, "Invalid", 0, errors.New("missing column"))
	providers.Metrics.RecordStage(ctx, "load", 250*time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "metrics", "ivt.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "ivt_files_loaded")
	assert.Contains(t, text, "ivt_files_failed")
	assert.Contains(t, text, "ivt_rows_loaded")
	assert.Contains(t, text, "ivt_stage_duration_seconds")
	assert.Contains(t, text, `stage="load"`)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordFile(context.Background(), "Valid", 1, nil)
		m.RecordStage(context.Background(), "analyze", time.Second, nil)
	})
}
