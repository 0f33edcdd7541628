// Package schema has the models and enumerations shared by all parts of phenomask.
package schema

import (
	"time"

	"github.com/huangsam/phenomask/core/pheno"
)

// PhaseWindows lists the resolved slice windows of a phase configuration.
type PhaseWindows struct {
	Early pheno.Window `json:"early"`
	Peak  pheno.Window `json:"peak"`
	Late  pheno.Window `json:"late"`
}

// ClassifySummary describes a completed classification.
type ClassifySummary struct {
	RunID            int64             `json:"run_id,omitempty"`
	InputPath        string            `json:"input_path"`
	InputFormat      RasterFormat      `json:"input_format"`
	OutputPath       string            `json:"output_path"`
	OutputFormat     RasterFormat      `json:"output_format"`
	PreviewPath      string            `json:"preview_path,omitempty"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	TimeSlices       int               `json:"time_slices"`
	Pixels           int               `json:"pixels"`
	PositivePixels   int               `json:"positive_pixels"`
	PositiveFraction float64           `json:"positive_fraction"`
	Phase            pheno.PhaseConfig `json:"phase"`
	Windows          PhaseWindows      `json:"windows"`
	Workers          int               `json:"workers"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         time.Duration     `json:"duration_ns"`
}

// SliceStats summarizes a single time slice of a stack.
type SliceStats struct {
	Index    int        `json:"index"`
	Phase    SlicePhase `json:"phase"`
	Min      float64    `json:"min"`
	Max      float64    `json:"max"`
	Mean     float64    `json:"mean"`
	StdDev   float64    `json:"stddev"`
	NaNCount int        `json:"nan_count"`
}

// InspectReport describes a stack without classifying it.
type InspectReport struct {
	Path         string            `json:"path"`
	Format       RasterFormat      `json:"format"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	TimeSlices   int               `json:"time_slices"`
	Projection   string            `json:"projection"`
	GeoTransform [6]float64        `json:"geotransform"`
	Phase        pheno.PhaseConfig `json:"phase"`
	PhaseError   string            `json:"phase_error,omitempty"` // set when Phase does not fit this stack
	Slices       []SliceStats      `json:"slices"`
}
