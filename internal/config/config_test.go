package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/asyncfile/internal/config"
)

func Test_Load_Returns_Defaults_When_File_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.jsonc")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func Test_Load_Overlays_Fields_From_Jsonc_With_Comments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "afbench.jsonc")
	content := `{
		// worker pool size for the async channel
		"workers": 16,
		"allocationThreshold": 4096,
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.Workers)
	require.Equal(t, int64(4096), cfg.AllocationThreshold)
	require.Equal(t, config.Default().ZeroChunkSize, cfg.ZeroChunkSize)
}

func Test_Load_Rejects_Invalid_Workers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 0}`), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}
