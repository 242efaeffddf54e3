// Package analysis computes the fraud-signal reports: valid-traffic
// benchmarks, correlation of each fraud metric with IVT, per-app deviation
// from the benchmark and the first time each invalid app crossed the IVT
// threshold.
//
// Missing values (NaN) are skipped by every statistic. An empty input yields
// NaN rather than an error so one missing file never stops a run.
package analysis
