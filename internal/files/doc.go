// Package files provides file system helpers for ivt-report.
//
// Discovery finds source exports by name ("App Valid 1.csv",
// "App Invalid 3.xlsx") and derives their status and app tag.
//
// Manager writes generated outputs atomically below the output directory.
//
// Example usage:
//
//	sources, err := files.NewDiscovery(paths.BaseDir).FindSources(paths.DataDir)
//
//	manager := files.NewManager(paths)
//	written, err := manager.WriteFile("report.json", data)
package files
