package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the terminal output.
	OutputMode string

	// RasterFormat names a raster codec.
	RasterFormat string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// RunState is the lifecycle state of a recorded run.
	RunState string

	// SlicePhase tells which window of the phase pattern a time slice falls in.
	SlicePhase string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All raster formats supported. GDALFormat needs a build with the gdal tag.
const (
	MsgpackFormat RasterFormat = "msgpack" // default
	ParquetFormat RasterFormat = "parquet"
	GDALFormat    RasterFormat = "gdal"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Run states.
const (
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// Slice phases. Transition slices sit right before and after the peak window
// and are never tested.
const (
	PhaseIgnored    SlicePhase = "ignored"
	PhaseEarly      SlicePhase = "early"
	PhaseTransition SlicePhase = "transition"
	PhasePeak       SlicePhase = "peak"
	PhaseLate       SlicePhase = "late"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidRasterFormats lists all raster format names.
var ValidRasterFormats = map[RasterFormat]struct{}{
	MsgpackFormat: {},
	ParquetFormat: {},
	GDALFormat:    {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
