package domain

import "time"

// RunStatus is the terminal status of one sync run.
type RunStatus string

const (
	// RunSuccess means the run completed; item- and batch-level errors
	// may still be reflected in ErrorCount.
	RunSuccess RunStatus = "success"

	// RunError means a run-level failure (fetch or total store
	// unreachability) aborted the run.
	RunError RunStatus = "error"
)

// BatchResult accumulates insertion counts across all batches of one
// load. Successful + Failed always equals Total.
type BatchResult struct {
	Successful int
	Failed     int
	Total      int
}

// Add folds the outcome of one batch into the running result.
func (r *BatchResult) Add(successful, failed int) {
	r.Successful += successful
	r.Failed += failed
	r.Total += successful + failed
}

// SyncRunResult records one end-to-end pass of the pipeline.
// Every run, success or failure, yields exactly one result appended to
// the capped run history.
type SyncRunResult struct {
	// ID is a unique identifier for the run.
	ID string

	// Started is the run's start time. The scheduler measures the
	// next interval from this value, not from completion time, so the
	// cadence is stable under variable run duration.
	Started time.Time

	// Duration is how long the run took.
	Duration time.Duration

	// Status is success or error.
	Status RunStatus

	// ItemsFound is how many items the fetch returned.
	ItemsFound int

	// NewCount and ModifiedCount come from change detection.
	NewCount      int
	ModifiedCount int

	// Processed is how many documents were stored successfully.
	Processed int

	// ErrorCount is the number of item-level and batch-level failures
	// recovered during the run.
	ErrorCount int

	// Message carries the run-level error or a short summary.
	Message string
}

// ProcessingSummary aggregates run history for display.
type ProcessingSummary struct {
	Total       int
	Successful  int
	Failed      int
	SuccessRate float64
}

// Summarise computes a processing summary over run results.
func Summarise(runs []SyncRunResult) ProcessingSummary {
	s := ProcessingSummary{Total: len(runs)}
	if s.Total == 0 {
		return s
	}
	for _, r := range runs {
		if r.Status == RunSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	s.SuccessRate = float64(s.Successful) / float64(s.Total) * 100
	return s
}
