package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/phenomask/schema"
)

// Color variables for console output.
var (
	SucceededColor = color.New(color.FgGreen, color.Bold)
	FailedColor    = color.New(color.FgRed, color.Bold)
	RunningColor   = color.New(color.FgYellow)
	PeakColor      = color.New(color.FgGreen)
	ShoulderColor  = color.New(color.FgCyan)
	IgnoredColor   = color.New(color.Faint)
)

// GetColorState returns a colored run state for console output (table).
func GetColorState(state string) string {
	switch schema.RunState(state) {
	case schema.RunSucceeded:
		return SucceededColor.Sprint(state)
	case schema.RunFailed:
		return FailedColor.Sprint(state)
	default:
		return RunningColor.Sprint(state)
	}
}

// GetColorPhase returns a colored slice phase for console output (table).
func GetColorPhase(phase schema.SlicePhase) string {
	switch phase {
	case schema.PhasePeak:
		return PeakColor.Sprint(phase)
	case schema.PhaseEarly, schema.PhaseLate:
		return ShoulderColor.Sprint(phase)
	default:
		return IgnoredColor.Sprint(phase)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".phenomask_history.db"
	}
	return filepath.Join(homeDir, ".phenomask_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
