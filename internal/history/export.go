package history

import (
	"errors"
	"fmt"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/parquet"
)

// ExportResult describes a finished export.
type ExportResult struct {
	Backend string
	Runs    int
	Path    string
}

// ExportRuns writes every recorded run to <outputFile>.runs.parquet.
func ExportRuns(store contract.RunStore, outputFile string) (ExportResult, error) {
	var result ExportResult
	if outputFile == "" {
		return result, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return result, errors.New("run history is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return result, fmt.Errorf("failed to get run history status: %w", err)
	}
	result.Backend = status.Backend
	if status.TotalRuns == 0 {
		return result, errors.New("no run history found to export")
	}

	records, err := store.GetAllRuns()
	if err != nil {
		return result, fmt.Errorf("failed to retrieve runs: %w", err)
	}

	result.Path = outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(records), result.Path); err != nil {
		return result, fmt.Errorf("failed to write runs: %w", err)
	}
	result.Runs = len(records)

	return result, nil
}
