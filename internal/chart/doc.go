// Package chart renders the invalid-app time series as a stacked PNG.
//
// Each panel plots IVT on the left axis and idfa_ua_ratio on a logarithmic
// right axis. The ratio is drawn as log10 values with power-of-ten labels,
// and every panel shares the same time range so they line up vertically.
package chart
