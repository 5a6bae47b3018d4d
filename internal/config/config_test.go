package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	def := Defaults()
	require.Equal(t, def.BlockSizePo2, cfg.BlockSizePo2)
	require.Equal(t, def.WorkerCount, cfg.WorkerCount)
	require.Equal(t, def.GPUEnabled, cfg.GPUEnabled)
	require.Equal(t, 16, cfg.BlockSize())
}

func TestLoadFromYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxelengine.yaml")
	contents := "worker_count: 8\ngpu_enabled: true\ndrop_distance: 1024\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.WorkerCount)
	require.True(t, cfg.GPUEnabled)
	require.Equal(t, 1024.0, cfg.DropDistance)

	// Unset fields still fall back to defaults.
	require.Equal(t, Defaults().LodCount, cfg.LodCount)
}

func TestLoadFromMissingFilePathReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestBlockSizeAndRegionSizeAreBitShiftsOfPo2Fields(t *testing.T) {
	cfg := EngineConfig{BlockSizePo2: 5, RegionSizePo2: 3}
	require.Equal(t, 32, cfg.BlockSize())
	require.Equal(t, 8, cfg.RegionSize())
}
