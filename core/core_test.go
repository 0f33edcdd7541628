package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/phenomask/core/pheno"
	"github.com/huangsam/phenomask/internal/contract"
	"github.com/huangsam/phenomask/internal/rasterio"
	"github.com/stretchr/testify/require"
)

// testConfig returns a validated-looking config for inputPath.
func testConfig(inputPath string) *contract.Config {
	return &contract.Config{
		InputPath: inputPath,
		Phase:     pheno.DefaultPhaseConfig(),
		Workers:   2,
		BandRows:  4,
		Precision: 3,
		Output:    "text",
		Synth: contract.SynthConfig{
			Width:         12,
			Height:        9,
			Slices:        20,
			MatchFraction: 0.4,
			Seed:          11,
		},
	}
}

// writeSynthStack writes a synthetic stack into a temp dir and returns its
// path with the number of pixels expected to match.
func writeSynthStack(t *testing.T, name string) (string, int) {
	t.Helper()
	cfg := testConfig("")
	result, err := GenerateStack(cfg.Synth, cfg.Phase)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	codec, err := rasterio.ForPath(path, "")
	require.NoError(t, err)
	require.NoError(t, codec.WriteStack(context.Background(), path, result.Stack))
	return path, result.Expected
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}
