package domain

import (
	"math"
	"time"
)

// Status classifies the traffic of an app as known-good or known-fraudulent
type Status string

const (
	StatusValid   Status = "Valid"
	StatusInvalid Status = "Invalid"
)

// IsKnown reports whether s is one of the defined statuses
func (s Status) IsKnown() bool {
	return s == StatusValid || s == StatusInvalid
}

// Column names of the unified schema
const (
	ColDate               = "Date"
	ColUniqueIDFAs        = "unique_idfas"
	ColUniqueIPs          = "unique_ips"
	ColUniqueUAs          = "unique_uas"
	ColTotalRequests      = "total_requests"
	ColRequestsPerIDFA    = "requests_per_idfa"
	ColImpressions        = "impressions"
	ColImpressionsPerIDFA = "impressions_per_idfa"
	ColIDFAIPRatio        = "idfa_ip_ratio"
	ColIDFAUARatio        = "idfa_ua_ratio"
	ColIVT                = "IVT"
	ColStatus             = "Status"
	ColAppID              = "App_ID"
)

// NumericColumns lists the metric columns in schema order
var NumericColumns = []string{
	ColUniqueIDFAs,
	ColUniqueIPs,
	ColUniqueUAs,
	ColTotalRequests,
	ColRequestsPerIDFA,
	ColImpressions,
	ColImpressionsPerIDFA,
	ColIDFAIPRatio,
	ColIDFAUARatio,
	ColIVT,
}

// FraudMetrics are the metrics benchmarked against valid traffic
var FraudMetrics = []string{
	ColRequestsPerIDFA,
	ColIDFAIPRatio,
	ColIDFAUARatio,
}

// AnalysisColumns is the full column set of a unified record
var AnalysisColumns = append(append([]string{ColDate}, NumericColumns...), ColStatus, ColAppID)

// SourceTag is the fixed label attached to every row of one source file
type SourceTag struct {
	Status Status `json:"status" yaml:"status" validate:"required,oneof=Valid Invalid"`
	AppID  string `json:"app_id" yaml:"app_id" validate:"required"`
}

// Source maps an input file to its tag
type Source struct {
	File      string `json:"file" yaml:"file" validate:"required"`
	SourceTag `yaml:",inline"`
}

// Record is one normalized row of traffic metrics.
// A zero Date means the timestamp was missing or unparseable; NaN marks a missing metric.
type Record struct {
	Date               time.Time `json:"date"`
	UniqueIDFAs        float64   `json:"unique_idfas"`
	UniqueIPs          float64   `json:"unique_ips"`
	UniqueUAs          float64   `json:"unique_uas"`
	TotalRequests      float64   `json:"total_requests"`
	RequestsPerIDFA    float64   `json:"requests_per_idfa"`
	Impressions        float64   `json:"impressions"`
	ImpressionsPerIDFA float64   `json:"impressions_per_idfa"`
	IDFAIPRatio        float64   `json:"idfa_ip_ratio"`
	IDFAUARatio        float64   `json:"idfa_ua_ratio"`
	IVT                float64   `json:"ivt"`
	Status             Status    `json:"status"`
	AppID              string    `json:"app_id"`
}

// NewRecord returns a record with every metric missing
func NewRecord(tag SourceTag) Record {
	nan := math.NaN()
	return Record{
		UniqueIDFAs:        nan,
		UniqueIPs:          nan,
		UniqueUAs:          nan,
		TotalRequests:      nan,
		RequestsPerIDFA:    nan,
		Impressions:        nan,
		ImpressionsPerIDFA: nan,
		IDFAIPRatio:        nan,
		IDFAUARatio:        nan,
		IVT:                nan,
		Status:             tag.Status,
		AppID:              tag.AppID,
	}
}

// HasDate reports whether the timestamp was parsed
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// Metric returns the value of a numeric column by name.
// Unknown names return NaN and false.
func (r Record) Metric(name string) (float64, bool) {
	switch name {
	case ColUniqueIDFAs:
		return r.UniqueIDFAs, true
	case ColUniqueIPs:
		return r.UniqueIPs, true
	case ColUniqueUAs:
		return r.UniqueUAs, true
	case ColTotalRequests:
		return r.TotalRequests, true
	case ColRequestsPerIDFA:
		return r.RequestsPerIDFA, true
	case ColImpressions:
		return r.Impressions, true
	case ColImpressionsPerIDFA:
		return r.ImpressionsPerIDFA, true
	case ColIDFAIPRatio:
		return r.IDFAIPRatio, true
	case ColIDFAUARatio:
		return r.IDFAUARatio, true
	case ColIVT:
		return r.IVT, true
	default:
		return math.NaN(), false
	}
}

// SetMetric assigns a numeric column by name and reports whether the name is known
func (r *Record) SetMetric(name string, v float64) bool {
	switch name {
	case ColUniqueIDFAs:
		r.UniqueIDFAs = v
	case ColUniqueIPs:
		r.UniqueIPs = v
	case ColUniqueUAs:
		r.UniqueUAs = v
	case ColTotalRequests:
		r.TotalRequests = v
	case ColRequestsPerIDFA:
		r.RequestsPerIDFA = v
	case ColImpressions:
		r.Impressions = v
	case ColImpressionsPerIDFA:
		r.ImpressionsPerIDFA = v
	case ColIDFAIPRatio:
		r.IDFAIPRatio = v
	case ColIDFAUARatio:
		r.IDFAUARatio = v
	case ColIVT:
		r.IVT = v
	default:
		return false
	}
	return true
}

// IsEmpty reports whether the date and every metric are missing
func (r Record) IsEmpty() bool {
	if r.HasDate() {
		return false
	}
	for _, col := range NumericColumns {
		if v, _ := r.Metric(col); !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Benchmark holds the valid-traffic distribution summary for one metric
type Benchmark struct {
	Metric string  `json:"metric"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// Correlation is the Pearson coefficient of one metric against IVT
type Correlation struct {
	Metric      string  `json:"metric"`
	Coefficient float64 `json:"coefficient"`
}

// Deviation compares one invalid app's average metrics with the valid benchmark.
// Only Metric is compared against the benchmark; Means carries the averages of every fraud metric.
type Deviation struct {
	AppID        string             `json:"app_id"`
	Status       Status             `json:"status"`
	Metric       string             `json:"metric"`
	Mean         float64            `json:"mean"`
	P95Deviation string             `json:"vs_valid_p95_pct"`
	Means        map[string]float64 `json:"means"`
}

// Flag is the first time an invalid app crossed the IVT threshold
type Flag struct {
	AppID        string    `json:"app_id"`
	FirstIVTTime time.Time `json:"first_ivt_time"`
}
