// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSummary prints a classification summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary schema.ClassifySummary, cfg *contract.Config) error {
	return WriteSummary(summary, cfg)
}

// WriteInspect prints a stack inspection report using the configured output format.
func (ow *OutWriter) WriteInspect(report schema.InspectReport, cfg *contract.Config) error {
	return WriteInspect(report, cfg)
}

// WriteRunStatus prints run history status using the configured output format.
func (ow *OutWriter) WriteRunStatus(status schema.RunStatus, cfg *contract.Config) error {
	return WriteRunStatus(status, cfg)
}

// WriteRuns prints recorded runs using the configured output format.
func (ow *OutWriter) WriteRuns(records []schema.RunRecord, cfg *contract.Config) error {
	return WriteRuns(records, cfg)
}

// getMaxTablePathWidth returns how many characters a path column may use.
// reserved is the width taken by the other columns of the table.
func getMaxTablePathWidth(reserved int) int {
	termWidth := 80 // Conservative default for narrow terminals and CI
	if detected, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && detected > 0 {
		termWidth = detected
	}

	available := termWidth - reserved - 10
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
