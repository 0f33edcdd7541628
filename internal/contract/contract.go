// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/phenomask/schema"
)

// HistoryManager hands out the run history store.
// This allows the history layer to be mocked for testing.
type HistoryManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking classification runs.
type RunStore interface {
	// BeginRun creates a new run in the running state and returns its unique ID
	BeginRun(startTime time.Time, inputPath string, configParams map[string]any) (int64, error)

	// EndRun records how a run finished
	EndRun(runID int64, endTime time.Time, outcome schema.RunOutcome) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// Close closes the underlying connection
	Close() error
}
