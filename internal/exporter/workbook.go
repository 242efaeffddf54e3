package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"ivtcli/internal/analysis"
	"ivtcli/internal/files"
	"ivtcli/internal/loader"
	"ivtcli/internal/report"
	"ivtcli/pkg/contracts/domain"
)

// Sheet names of the report workbook, in order
const (
	SheetBenchmark   = "Benchmark"
	SheetCorrelation = "Correlation"
	SheetDeviation   = "Deviation"
	SheetFlagging    = "Flagging Timeline"
	SheetSkipped     = "Skipped Sources"
)

// sheet is one worksheet: a header row followed by data rows
type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
}

// WorkbookWriter exports the analysis reports as an XLSX workbook, one sheet per report
type WorkbookWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook exporter
func NewWorkbookWriter(manager *files.Manager, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{files: manager, logger: logger}
}

// Write builds the workbook and stores it at filePath. The skipped sources
// sheet is added only when a file failed to load.
func (w *WorkbookWriter) Write(filePath string, s *analysis.Summary, failed []loader.FileResult) (string, error) {
	sheets := reportSheets(s, failed)

	w.logger.Info("Writing report workbook",
		slog.String("file_path", filePath),
		slog.Int("sheets", len(sheets)))

	return w.files.WriteWith(filePath, func(out io.Writer) error {
		f, err := buildWorkbook(sheets)
		if err != nil {
			return err
		}
		defer f.Close()
		return f.Write(out)
	})
}

func reportSheets(s *analysis.Summary, failed []loader.FileResult) []sheet {
	benchmark := sheet{
		name:   SheetBenchmark,
		header: []string{"Metric", report.ColMedian, report.PercentileColumn(s.Percentile)},
	}
	for _, b := range s.Benchmarks {
		benchmark.rows = append(benchmark.rows, []interface{}{b.Metric, cellValue(b.Median), cellValue(b.P95)})
	}

	correlation := sheet{name: SheetCorrelation, header: []string{"Metric", report.ColCorrelation}}
	for _, c := range s.Correlations {
		correlation.rows = append(correlation.rows, []interface{}{c.Metric, cellValue(c.Coefficient)})
	}

	deviation := sheet{name: SheetDeviation, header: append([]string{domain.ColAppID}, report.DeviationColumns(s)...)}
	for _, d := range s.Deviations {
		row := []interface{}{d.AppID, string(d.Status), cellValue(d.Mean), d.P95Deviation}
		for _, b := range report.SecondaryMetrics(s, d.Metric) {
			row = append(row, cellValue(d.Means[b]))
		}
		deviation.rows = append(deviation.rows, row)
	}

	flagging := sheet{name: SheetFlagging, header: []string{domain.ColAppID, report.ColFirstIVTTime}}
	for _, f := range s.Flags {
		flagging.rows = append(flagging.rows, []interface{}{f.AppID, f.FirstIVTTime})
	}

	sheets := []sheet{benchmark, correlation, deviation, flagging}

	if len(failed) > 0 {
		skipped := sheet{name: SheetSkipped, header: []string{"File", domain.ColAppID, domain.ColStatus, "Error"}}
		for _, res := range failed {
			reason := ""
			if res.Err != nil {
				reason = res.Err.Error()
			}
			skipped.rows = append(skipped.rows, []interface{}{res.Source.File, res.Source.AppID, string(res.Source.Status), reason})
		}
		sheets = append(sheets, skipped)
	}
	return sheets
}

func buildWorkbook(sheets []sheet) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}

		if err := writeSheet(f, sh, bold, dateStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sh sheet, headerStyle, dateStyle int) error {
	header := make([]interface{}, len(sh.header))
	for i, h := range sh.header {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sh.name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return err
		}
	}

	if sh.name == SheetFlagging && len(sh.rows) > 0 {
		last, err := excelize.CoordinatesToCellName(2, len(sh.rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.name, "B2", last, dateStyle); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(sh.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sh.name, "A", lastCol, 24)
}

// cellValue leaves NaN cells empty
func cellValue(v float64) interface{} {
	if p := nullable(v); p != nil {
		return *p
	}
	return nil
}
