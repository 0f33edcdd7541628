package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSummary outputs a classification summary, dispatching on the configured format.
func WriteSummary(s schema.ClassifySummary, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, s, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, s, fmtFloat)
		}, "Wrote table")
	}
}

// summaryFields lists the summary as ordered key/value pairs shared by table and CSV.
func summaryFields(s schema.ClassifySummary, fmtFloat func(float64) string) [][2]string {
	fields := [][2]string{
		{"input", s.InputPath},
		{"input_format", string(s.InputFormat)},
		{"output", s.OutputPath},
		{"output_format", string(s.OutputFormat)},
	}
	if s.PreviewPath != "" {
		fields = append(fields, [2]string{"preview", s.PreviewPath})
	}
	fields = append(fields,
		[2]string{"width", strconv.Itoa(s.Width)},
		[2]string{"height", strconv.Itoa(s.Height)},
		[2]string{"time_slices", strconv.Itoa(s.TimeSlices)},
		[2]string{"min_index", fmtFloat(s.Phase.MinIndex)},
		[2]string{"max_index", fmtFloat(s.Phase.MaxIndex)},
		[2]string{"early_window", s.Windows.Early.String()},
		[2]string{"peak_window", s.Windows.Peak.String()},
		[2]string{"late_window", s.Windows.Late.String()},
		[2]string{"positive_pixels", strconv.Itoa(s.PositivePixels)},
		[2]string{"positive_fraction", fmtFloat(s.PositiveFraction)},
	)
	return fields
}

func writeSummaryTable(w io.Writer, s schema.ClassifySummary, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	maxWidth := getMaxTablePathWidth(25)
	var data [][]string
	for _, f := range summaryFields(s, fmtFloat) {
		data = append(data, []string{f[0], contract.TruncatePath(f[1], maxWidth)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Classified %d of %d pixels as positive\n", s.PositivePixels, s.Pixels); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Classification completed in %v with %d workers", s.Duration, s.Workers); err != nil {
		return err
	}
	if s.RunID > 0 {
		if _, err := fmt.Fprintf(w, " (run %d)", s.RunID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeSummaryCSV(w io.Writer, s schema.ClassifySummary, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
		for _, f := range summaryFields(s, fmtFloat) {
			if err := cw.Write(f[:]); err != nil {
				return err
			}
		}
		return cw.Write([]string{"duration_ms", strconv.FormatInt(s.Duration.Milliseconds(), 10)})
	})
}
