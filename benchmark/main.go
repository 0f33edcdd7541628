// Package main provides a performance benchmarking tool for the phenomask CLI.
// It generates synthetic stacks of increasing size, classifies each one
// several times per worker count, treats the first successful run as cold and
// averages the rest as warm, and writes the timings to CSV.
//
// Prerequisites:
// - phenomask binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated stacks and masks (default: a temp dir)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StackSize describes one synthetic stack shape.
type StackSize struct {
	Name   string
	Width  int
	Height int
	Slices int
}

// BenchmarkResult holds the synth time, the cold run and the average of warm runs.
type BenchmarkResult struct {
	Size      string
	Format    string
	Workers   int
	SynthTime string
	ColdTime  string
	WarmTime  string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir string
	Timeout time.Duration
	Runs    int
	Workers []int
	Formats []string
	Sizes   []StackSize
}

func main() {
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	workDir := ""
	if len(os.Args) == 2 {
		workDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "phenomask-benchmark-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir: workDir,
		Timeout: 5 * time.Minute,
		Runs:    4,
		Workers: []int{1, 4, 8},
		Formats: []string{"mpk", "parquet"},
		Sizes: []StackSize{
			{Name: "small", Width: 256, Height: 256, Slices: 23},
			{Name: "medium", Width: 1024, Height: 1024, Slices: 23},
			{Name: "large", Width: 2048, Height: 2048, Slices: 46},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the phenomask binary and the work dir exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("phenomask"); err != nil {
		return fmt.Errorf("phenomask binary not found in PATH")
	}
	if info, err := os.Stat(config.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("work dir %s is not a directory", config.WorkDir)
	}
	return nil
}

// runBenchmarks executes every size, format and worker combination
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d formats, workers %v, %d runs each, %v timeout\n",
		len(config.Sizes), len(config.Formats), config.Workers, config.Runs, config.Timeout)

	for _, size := range config.Sizes {
		for _, format := range config.Formats {
			stackPath := filepath.Join(config.WorkDir, fmt.Sprintf("%s.%s", size.Name, format))

			fmt.Printf("Generating %s stack (%dx%dx%d) as %s\n", size.Name, size.Width, size.Height, size.Slices, format)
			synthStart := time.Now()
			_, err := runPhenomask(config, "synth", stackPath,
				"--width", strconv.Itoa(size.Width),
				"--height", strconv.Itoa(size.Height),
				"--slices", strconv.Itoa(size.Slices))
			if err != nil {
				fmt.Printf("  Warning: synth failed: %v\n", err)
				continue
			}
			synthTime := fmt.Sprintf("%.3fs", time.Since(synthStart).Seconds())

			for _, workers := range config.Workers {
				result := runBenchmarkSuite(config, size, format, stackPath, workers)
				result.SynthTime = synthTime
				results = append(results, result)
			}
		}
	}

	return results
}

// runBenchmarkSuite classifies one stack config.Runs times with a worker count
func runBenchmarkSuite(config BenchmarkConfig, size StackSize, format, stackPath string, workers int) BenchmarkResult {
	fmt.Printf("Classifying %s/%s with %d workers (%d runs)\n", size.Name, format, workers, config.Runs)

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()
		output, err := runPhenomask(config, "classify", stackPath, "--workers", strconv.Itoa(workers))
		if err == nil && isSuccess(output) {
			times = append(times, time.Since(start).Seconds())
		}
	}

	coldTime, warmAvg := "TIMEOUT", "TIMEOUT"
	if len(times) > 0 {
		coldTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTime, warmAvg)

	return BenchmarkResult{
		Size:     size.Name,
		Format:   format,
		Workers:  workers,
		ColdTime: coldTime,
		WarmTime: warmAvg,
	}
}

// runPhenomask runs one command without history tracking or colors
func runPhenomask(config BenchmarkConfig, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	args = append(args, "--history-backend", "none", "--color", "no")
	cmd := exec.CommandContext(ctx, "phenomask", args...)
	cmd.Dir = config.WorkDir
	return cmd.CombinedOutput()
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Classification completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("phenomask_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"size", "format", "workers", "synth_time", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{result.Size, result.Format, strconv.Itoa(result.Workers), result.SynthTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-7s %-8s workers=%-2d synth: %s, cold: %s, warm: %s\n",
			result.Size, result.Format, result.Workers, result.SynthTime, result.ColdTime, result.WarmTime)
	}
}
