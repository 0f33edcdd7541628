package schema

import "time"

// RunOutcome is what a finished run reports back to the history store.
type RunOutcome struct {
	State          RunState
	OutputPath     string
	Width          int
	Height         int
	TimeSlices     int
	PositivePixels int
	Error          string
}

// RunRecord represents a row from the phenomask_runs table.
type RunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	State          string
	InputPath      string
	OutputPath     *string
	Width          int32
	Height         int32
	TimeSlices     int32
	PositivePixels int64
	ConfigParams   *string
	ErrorMessage   *string
}
