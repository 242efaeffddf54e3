// Package config provides configuration management for ivt-report.
// It builds one Config from defaults, an optional YAML file and environment
// overrides, and validates the result before the pipeline starts.
//
// # Configuration Sources
//
// Sources are applied in the following order, later ones winning:
//
//	1. Default() values
//	2. YAML file (-config flag, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern IVT_<SECTION>_<KEY>:
//
//	IVT_LOGGING_LEVEL=debug
//	IVT_ANALYSIS_IVT_THRESHOLD=0.6
//	IVT_CHART_OUTPUT=chart.png
//	IVT_DISCOVER=true
//
// The source list has no environment form; set it in YAML:
//
//	sources:
//	  - file: App Valid 1.csv
//	    status: Valid
//	    app_id: App Valid 1
//
// # Path Management
//
// Paths resolves the data, output and log directories against a base
// directory, normally the working directory:
//
//	paths, _ := config.NewPaths("", cfg.Paths)
//	chartPath := paths.OutputPath(cfg.Chart.Output)
//
// # Validation
//
// Validate checks value ranges with validator struct tags, requires at
// least one source unless discovery is enabled, and requires the deviation
// metric to be one of the fraud metrics.
package config
