package pipeline

import (
	"context"
	"time"
)

// Stage identifiers, in execution order
const (
	StageSources = "sources"
	StageLoad    = "load"
	StageMerge   = "merge"
	StageAnalyze = "analyze"
	StageReport  = "report"
	StageChart   = "chart"
	StageExport  = "export"
)

// StageStatus represents the outcome of a stage
type StageStatus string

const (
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageResult records how one stage went
type StageResult struct {
	ID       string        `json:"id"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// stage is one step of a run. skip, when set and true, marks the stage
// skipped without running it.
type stage struct {
	id   string
	run  func(ctx context.Context, state *State) error
	skip func(state *State) bool
}
