package contract

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/schema"
	"golang.org/x/term"
)

// Default values for configuration.
const (
	DefaultPrecision     = 3
	MaxPrecision         = 6
	DefaultBandRows      = 16
	DefaultSynthWidth    = 256
	DefaultSynthHeight   = 256
	DefaultSynthSlices   = 23
	DefaultMatchFraction = 0.3
	DefaultSeed          = 1
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// SynthConfig holds the parameters of a generated stack.
type SynthConfig struct {
	Width         int
	Height        int
	Slices        int
	MatchFraction float64
	Seed          uint64
}

// Config holds the runtime configuration for a command.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath    string
	OutputPath   string // empty means derive from InputPath
	PreviewPath  string
	InputFormat  schema.RasterFormat // empty means pick by extension
	OutputFormat schema.RasterFormat

	Phase    pheno.PhaseConfig
	Workers  int
	BandRows int

	Precision  int
	Output     schema.OutputMode
	OutputFile string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Synth SynthConfig

	UseColors bool // Enable colored labels in table output
	Debug     bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Workers          int    `mapstructure:"workers"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Color            string `mapstructure:"color"`
	Debug            bool   `mapstructure:"debug"`

	// --- Phase pattern, shared by classify, inspect and synth ---
	MinIndex   float64 `mapstructure:"min-index"`
	MaxIndex   float64 `mapstructure:"max-index"`
	StartSlice int     `mapstructure:"start-slice"`
	PeakStart  int     `mapstructure:"peak-start"`
	PeakEnd    int     `mapstructure:"peak-end"`

	// --- Fields from classifyCmd.Flags() ---
	Out          string `mapstructure:"out"`
	Preview      string `mapstructure:"preview"`
	InputFormat  string `mapstructure:"input-format"`
	OutputFormat string `mapstructure:"output-format"`
	BandRows     int    `mapstructure:"band-rows"`

	// --- Fields from synthCmd.Flags() ---
	Width         int     `mapstructure:"width"`
	Height        int     `mapstructure:"height"`
	Slices        int     `mapstructure:"slices"`
	MatchFraction float64 `mapstructure:"match-fraction"`
	Seed          uint64  `mapstructure:"seed"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processPhase(cfg, input); err != nil {
		return err
	}
	if err := processRasterFormats(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processSynth(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseColorMode resolves the --color flag. "auto" enables colors only when
// stdout is a terminal.
func ParseColorMode(s string) (bool, error) {
	if strings.EqualFold(s, "auto") || s == "" {
		return term.IsTerminal(int(os.Stdout.Fd())), nil
	}
	return ParseBoolString(s)
}

// validateSimpleInputs processes and validates the output-related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = strings.TrimSpace(input.InputPathStr)
	cfg.OutputPath = strings.TrimSpace(input.Out)
	cfg.PreviewPath = strings.TrimSpace(input.Preview)
	cfg.OutputFile = input.OutputFile
	cfg.Debug = input.Debug

	colors, err := ParseColorMode(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.BandRows = input.BandRows
	if cfg.BandRows <= 0 {
		cfg.BandRows = DefaultBandRows
	}

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	return nil
}

// processPhase copies the phase pattern and checks everything that does not
// depend on the stack depth. PeakEnd is checked against the real stack later.
func processPhase(cfg *Config, input *ConfigRawInput) error {
	cfg.Phase = pheno.PhaseConfig{
		MinIndex:   input.MinIndex,
		MaxIndex:   input.MaxIndex,
		StartSlice: input.StartSlice,
		PeakStart:  input.PeakStart,
		PeakEnd:    input.PeakEnd,
	}
	return cfg.Phase.Validate(math.MaxInt)
}

// processRasterFormats validates explicit codec names. Empty means by extension.
func processRasterFormats(cfg *Config, input *ConfigRawInput) error {
	parse := func(flag, v string) (schema.RasterFormat, error) {
		f := schema.RasterFormat(strings.ToLower(strings.TrimSpace(v)))
		if f == "" {
			return "", nil
		}
		if _, ok := schema.ValidRasterFormats[f]; !ok {
			return "", fmt.Errorf("invalid %s '%s'. must be msgpack, parquet, gdal", flag, v)
		}
		return f, nil
	}

	var err error
	if cfg.InputFormat, err = parse("input-format", input.InputFormat); err != nil {
		return err
	}
	if cfg.OutputFormat, err = parse("output-format", input.OutputFormat); err != nil {
		return err
	}
	return nil
}

// validateBackendConfig validates the run history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// processSynth validates the synthetic stack parameters. Zero values take defaults.
func processSynth(cfg *Config, input *ConfigRawInput) error {
	s := SynthConfig{
		Width:         input.Width,
		Height:        input.Height,
		Slices:        input.Slices,
		MatchFraction: input.MatchFraction,
		Seed:          input.Seed,
	}
	if s.Width == 0 {
		s.Width = DefaultSynthWidth
	}
	if s.Height == 0 {
		s.Height = DefaultSynthHeight
	}
	if s.Slices == 0 {
		s.Slices = DefaultSynthSlices
	}
	if s.Width < 0 || s.Height < 0 || s.Slices < 0 {
		return fmt.Errorf("width, height and slices must be positive (received %dx%dx%d)", s.Width, s.Height, s.Slices)
	}
	if math.IsNaN(s.MatchFraction) || s.MatchFraction < 0 || s.MatchFraction > 1 {
		return fmt.Errorf("match-fraction must be between 0 and 1 (received %v)", input.MatchFraction)
	}
	cfg.Synth = s
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
