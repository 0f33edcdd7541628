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

// WriteInspect outputs a stack inspection report, dispatching on the configured format.
func WriteInspect(r schema.InspectReport, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, r)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInspectCSV(w, r, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInspectTable(w, r, fmtFloat)
		}, "Wrote table")
	}
}

func writeInspectTable(w io.Writer, r schema.InspectReport, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "%s (%s): %d x %d pixels, %d time slices\n",
		contract.TruncatePath(r.Path, getMaxTablePathWidth(40)), r.Format, r.Width, r.Height, r.TimeSlices); err != nil {
		return err
	}
	if r.Projection != "" {
		if _, err := fmt.Fprintf(w, "Projection: %s\n", contract.TruncatePath(r.Projection, getMaxTablePathWidth(12))); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Slice", "Phase", "Min", "Max", "Mean", "StdDev", "NaN"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range r.Slices {
		data = append(data, []string{
			strconv.Itoa(s.Index),
			contract.GetColorPhase(s.Phase),
			fmtFloat(s.Min),
			fmtFloat(s.Max),
			fmtFloat(s.Mean),
			fmtFloat(s.StdDev),
			strconv.Itoa(s.NaNCount),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if r.PhaseError != "" {
		_, err := fmt.Fprintf(w, "Phase configuration does not fit this stack: %s\n", r.PhaseError)
		return err
	}
	return nil
}

func writeInspectCSV(w io.Writer, r schema.InspectReport, fmtFloat func(float64) string) error {
	header := []string{"slice", "phase", "min", "max", "mean", "stddev", "nan_count"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range r.Slices {
			rec := []string{
				strconv.Itoa(s.Index),
				string(s.Phase),
				fmtFloat(s.Min),
				fmtFloat(s.Max),
				fmtFloat(s.Mean),
				fmtFloat(s.StdDev),
				strconv.Itoa(s.NaNCount),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
