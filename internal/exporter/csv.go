package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"ivtcli/internal/dataset"
	"ivtcli/internal/files"
	"ivtcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognise UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(manager *files.Manager, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{files: manager, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the headers and records to filePath and returns the written location
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return w.files.WriteWith(filePath, func(out io.Writer) error {
		return encodeCSV(out, options)
	})
}

func encodeCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDataset exports the unified dataset with the analysis column set.
// Missing values are left empty.
func (w *CSVWriter) WriteDataset(filePath string, ds *dataset.Dataset) (string, error) {
	records := make([][]string, 0, ds.Len())
	for _, r := range ds.Records {
		records = append(records, datasetRow(r))
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   domain.AnalysisColumns,
		Records:   records,
		BOMPrefix: true,
	})
}

func datasetRow(r domain.Record) []string {
	row := make([]string, 0, len(domain.AnalysisColumns))
	row = append(row, formatTime(r.Date))
	for _, col := range domain.NumericColumns {
		v, _ := r.Metric(col)
		row = append(row, formatFloat(v))
	}
	return append(row, string(r.Status), r.AppID)
}
