package config

// Application constants
const (
	AppName = "IVT Report"
	AppSlug = "ivt-report"

	// EnvPrefix namespaces every environment override, e.g. IVT_LOGGING_LEVEL
	EnvPrefix = "IVT"

	// File paths (relative to the working directory)
	DefaultDataDir   = "."
	DefaultOutputDir = "."
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/ivt-report.log"

	// Analysis
	DefaultHeaderLines  = 3
	DefaultIVTThreshold = 0.5
	DefaultPercentile   = 0.95

	// Chart
	DefaultChartFile   = "invalid_app_time_series_analysis.png"
	DefaultChartWidth  = 1400
	DefaultPanelHeight = 400
	DefaultTimeFormat  = "2006-01-02 15:04"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// SourceFilePattern matches discoverable exports, e.g. "App Invalid 2.csv"
	SourceFilePattern = `^App (Valid|Invalid) (\d+)\.(csv|xlsx)$`
)
