// Package parquet exports phenomask run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/phenomask/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single classification run with its outcome.
// This struct maps to the phenomask_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run finished (nullable while running)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// State is one of running, succeeded or failed
	State string `parquet:"state,dict,snappy"`

	// InputPath is the stack the run classified
	InputPath string `parquet:"input_path,snappy"`

	// OutputPath is where the mask was written (nullable)
	OutputPath *string `parquet:"output_path,optional,snappy"`

	Width      int32 `parquet:"width,snappy"`
	Height     int32 `parquet:"height,snappy"`
	TimeSlices int32 `parquet:"time_slices,snappy"`

	// PositivePixels counts mask cells set to 1
	PositivePixels int64 `parquet:"positive_pixels,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`

	// ErrorMessage is set for failed runs
	ErrorMessage *string `parquet:"error_message,optional,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return file.Close()
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			State:          record.State,
			InputPath:      record.InputPath,
			OutputPath:     record.OutputPath,
			Width:          record.Width,
			Height:         record.Height,
			TimeSlices:     record.TimeSlices,
			PositivePixels: record.PositivePixels,
			ConfigParams:   record.ConfigParams,
			ErrorMessage:   record.ErrorMessage,
		}
	}
	return result
}
