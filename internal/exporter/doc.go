// Package exporter writes the optional run outputs:
//
// CSVWriter: the unified dataset as CSV, with a UTF-8 BOM for Excel.
//
// WorkbookWriter: every report as an XLSX workbook, one sheet per report.
//
// JSONWriter: every report as one indented JSON document.
//
// All writers go through files.Manager so partial files are never left behind.
//
// Example usage:
//
//	manager := files.NewManager(paths)
//	written, err := exporter.NewCSVWriter(manager, logger).WriteDataset("combined.csv", ds)
package exporter
