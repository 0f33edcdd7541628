package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunStatus outputs the run history status, dispatching on the configured format.
func WriteRunStatus(status schema.RunStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunStatusCSV(w, status)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunStatusText(w, status)
		}, "Wrote status")
	}
}

func writeRunStatusText(w io.Writer, status schema.RunStatus) error {
	lines := []string{
		fmt.Sprintf("History Backend: %s", status.Backend),
		fmt.Sprintf("Connected: %t", status.Connected),
	}
	if status.Connected {
		lines = append(lines, fmt.Sprintf("Total Runs: %d", status.TotalRuns))
		if status.TotalRuns > 0 {
			lines = append(lines,
				fmt.Sprintf("Failed Runs: %d", status.FailedRuns),
				fmt.Sprintf("Last Run ID: %d", status.LastRunID),
				fmt.Sprintf("Last Run: %s", formatTime(status.LastRunTime)),
				fmt.Sprintf("Oldest Run: %s", formatTime(status.OldestRunTime)),
				fmt.Sprintf("Total Pixels Classified: %d", status.TotalPixels),
				fmt.Sprintf("Total Positive Pixels: %d", status.TotalPositive),
			)
		}
		lines = append(lines, "Table Sizes:")
		for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
			lines = append(lines, fmt.Sprintf("  %s: %d rows", table, status.TableSizes[table]))
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeRunStatusCSV(w io.Writer, status schema.RunStatus) error {
	return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
		rows := [][]string{
			{"backend", status.Backend},
			{"connected", strconv.FormatBool(status.Connected)},
			{"total_runs", strconv.Itoa(status.TotalRuns)},
			{"failed_runs", strconv.Itoa(status.FailedRuns)},
			{"last_run_id", strconv.FormatInt(status.LastRunID, 10)},
			{"total_pixels", strconv.FormatInt(status.TotalPixels, 10)},
			{"total_positive", strconv.FormatInt(status.TotalPositive, 10)},
		}
		return cw.WriteAll(rows)
	})
}

// WriteRuns outputs recorded runs, dispatching on the configured format.
func WriteRuns(records []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if records == nil {
				records = []schema.RunRecord{}
			}
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, records)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, records)
		}, "Wrote table")
	}
}

func writeRunsTable(w io.Writer, records []schema.RunRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Started", "State", "Input", "Size", "Positive", "Duration"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := getMaxTablePathWidth(75)
	var data [][]string
	for _, r := range records {
		duration := "-"
		if r.RunDurationMs != nil {
			duration = fmt.Sprintf("%dms", *r.RunDurationMs)
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			formatTime(r.StartTime),
			contract.GetColorState(r.State),
			contract.TruncatePath(r.InputPath, maxWidth),
			fmt.Sprintf("%dx%dx%d", r.Width, r.Height, r.TimeSlices),
			strconv.FormatInt(r.PositivePixels, 10),
			duration,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(records))
	return err
}

func writeRunsCSV(w io.Writer, records []schema.RunRecord) error {
	header := []string{
		"run_id", "start_time", "state", "input_path", "output_path",
		"width", "height", "time_slices", "positive_pixels", "duration_ms", "error",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			duration := ""
			if r.RunDurationMs != nil {
				duration = strconv.Itoa(int(*r.RunDurationMs))
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.StartTime.UTC().Format(DateTimeFormat),
				r.State,
				r.InputPath,
				derefString(r.OutputPath),
				strconv.Itoa(int(r.Width)),
				strconv.Itoa(int(r.Height)),
				strconv.Itoa(int(r.TimeSlices)),
				strconv.FormatInt(r.PositivePixels, 10),
				duration,
				derefString(r.ErrorMessage),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
