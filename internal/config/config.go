package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "ivtcli/internal/errors"
	"ivtcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Sources   []domain.Source `yaml:"sources" ignored:"true" validate:"dive"`
	Discover  bool            `yaml:"discover" envconfig:"DISCOVER"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Chart     ChartConfig     `yaml:"chart" envconfig:"CHART"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig controls how source files are read and which metrics are analysed
type AnalysisConfig struct {
	HeaderLines     int      `yaml:"header_lines" envconfig:"HEADER_LINES" validate:"gte=0"`
	IVTThreshold    float64  `yaml:"ivt_threshold" envconfig:"IVT_THRESHOLD" validate:"gte=0,lte=1"`
	Percentile      float64  `yaml:"percentile" envconfig:"PERCENTILE" validate:"gt=0,lt=1"`
	FraudMetrics    []string `yaml:"fraud_metrics" envconfig:"FRAUD_METRICS" validate:"required,min=1,dive,metric"`
	DeviationMetric string   `yaml:"deviation_metric" envconfig:"DEVIATION_METRIC" validate:"required,metric"`
}

// ChartConfig contains the time-series chart settings
type ChartConfig struct {
	Enabled     bool     `yaml:"enabled" envconfig:"ENABLED"`
	Apps        []string `yaml:"apps" envconfig:"APPS"`
	Output      string   `yaml:"output" envconfig:"OUTPUT" validate:"required_if=Enabled true"`
	Width       int      `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	PanelHeight int      `yaml:"panel_height" envconfig:"PANEL_HEIGHT" validate:"gt=0"`
	TimeFormat  string   `yaml:"time_format" envconfig:"TIME_FORMAT" validate:"required"`
}

// ExportConfig lists optional export targets. An empty path disables the export.
type ExportConfig struct {
	CombinedCSV string `yaml:"combined_csv" envconfig:"COMBINED_CSV"`
	Workbook    string `yaml:"workbook" envconfig:"WORKBOOK"`
	JSON        string `yaml:"json" envconfig:"JSON"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig contains tracing and metrics output settings
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile     string  `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, the YAML file and IVT_* environment variables.
// An empty path searches the usual locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s not found", path), err)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the rules that span fields
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return apperrors.NewValidationError("config validation failed", formatValidationErrors(err))
	}

	if len(c.Sources) == 0 && !c.Discover {
		return apperrors.NewValidationError("at least one source is required unless discover is enabled", nil)
	}

	if !slices.Contains(c.Analysis.FraudMetrics, c.Analysis.DeviationMetric) {
		return apperrors.NewValidationError(
			fmt.Sprintf("deviation metric %q is not one of the fraud metrics", c.Analysis.DeviationMetric), nil)
	}

	return nil
}

// newValidator reports field names by their YAML key and knows the metric columns
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.NumericColumns, fl.Field().String())
	})

	return v
}

func formatValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", ns, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", ns, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// getConfigFilePath returns the first config file found in the common locations
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Sources: DefaultSources(),
		Analysis: AnalysisConfig{
			HeaderLines:     DefaultHeaderLines,
			IVTThreshold:    DefaultIVTThreshold,
			Percentile:      DefaultPercentile,
			FraudMetrics:    slices.Clone(domain.FraudMetrics),
			DeviationMetric: domain.ColIDFAUARatio,
		},
		Chart: ChartConfig{
			Enabled:     true,
			Apps:        []string{"App Invalid 1", "App Invalid 2", "App Invalid 3"},
			Output:      DefaultChartFile,
			Width:       DefaultChartWidth,
			PanelHeight: DefaultPanelHeight,
			TimeFormat:  DefaultTimeFormat,
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppSlug,
			Environment:   "development",
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}

// DefaultSources returns the six files of the reference data set and their tags
func DefaultSources() []domain.Source {
	var sources []domain.Source
	for _, status := range []domain.Status{domain.StatusValid, domain.StatusInvalid} {
		for i := 1; i <= 3; i++ {
			app := fmt.Sprintf("App %s %d", status, i)
			sources = append(sources, domain.Source{
				File:      app + ".csv",
				SourceTag: domain.SourceTag{Status: status, AppID: app},
			})
		}
	}
	return sources
}
