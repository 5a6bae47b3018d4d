// Package config loads the engine's configuration via viper, layering
// a config file and environment variables over built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig drives every subsystem's construction.
type EngineConfig struct {
	BlockSizePo2  int           `mapstructure:"block_size_po2"`
	LodCount      int           `mapstructure:"lod_count"`
	RegionSizePo2 int           `mapstructure:"region_size_po2"`
	SectorSize    int           `mapstructure:"sector_size"`
	WorkerCount   int           `mapstructure:"worker_count"`
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	DropDistance  float64       `mapstructure:"drop_distance"`
	GPUEnabled    bool          `mapstructure:"gpu_enabled"`
	StreamingDir  string        `mapstructure:"streaming_dir"`
}

// BlockSize returns 2^BlockSizePo2, the edge length of one chunk.
func (c EngineConfig) BlockSize() int { return 1 << uint(c.BlockSizePo2) }

// RegionSize returns 2^RegionSizePo2, the edge length (in blocks) of one
// region file.
func (c EngineConfig) RegionSize() int { return 1 << uint(c.RegionSizePo2) }

// Defaults returns baseline settings sized for a small development
// world.
func Defaults() EngineConfig {
	return EngineConfig{
		BlockSizePo2:  4, // 16^3 blocks
		LodCount:      6,
		RegionSizePo2: 4, // 16^3 blocks per region file
		SectorSize:    512,
		WorkerCount:   4,
		SyncInterval:  50 * time.Millisecond,
		DropDistance:  512.0,
		GPUEnabled:    false,
		StreamingDir:  "",
	}
}

// Load reads configuration from an optional file path (may be empty),
// environment variables prefixed VOXELENGINE_, and falls back to
// Defaults() for anything unset.
func Load(configPath string) (EngineConfig, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("block_size_po2", def.BlockSizePo2)
	v.SetDefault("lod_count", def.LodCount)
	v.SetDefault("region_size_po2", def.RegionSizePo2)
	v.SetDefault("sector_size", def.SectorSize)
	v.SetDefault("worker_count", def.WorkerCount)
	v.SetDefault("sync_interval", def.SyncInterval)
	v.SetDefault("drop_distance", def.DropDistance)
	v.SetDefault("gpu_enabled", def.GPUEnabled)
	v.SetDefault("streaming_dir", def.StreamingDir)

	v.SetEnvPrefix("VOXELENGINE")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return EngineConfig{}, fmt.Errorf("load config %q: %w", configPath, err)
		}
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
