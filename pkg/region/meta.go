// Package region implements sector-packed region files that persist
// voxel blocks to disk, one file per region of blocks per LOD.
package region

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Meta is the directory-level `meta` file: JSON describing the fixed
// geometry every region file in the directory shares.
type Meta struct {
	Version       int `json:"version"`
	BlockSizePo2  int `json:"block_size_po2"`
	RegionSizePo2 int `json:"region_size_po2"`
	SectorSize    int `json:"sector_size"`
	LodCount      int `json:"lod_count"`
}

const CurrentMetaVersion = 3

func DefaultMeta(blockSizePo2, regionSizePo2, lodCount int) Meta {
	return Meta{
		Version:       CurrentMetaVersion,
		BlockSizePo2:  blockSizePo2,
		RegionSizePo2: regionSizePo2,
		SectorSize:    512,
		LodCount:      lodCount,
	}
}

func LoadMeta(dir string) (Meta, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "meta"))
	if err != nil {
		return Meta{}, fmt.Errorf("read meta: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("%w: parse meta", ErrInvalidFormat)
	}
	return m, nil
}

func SaveMeta(dir string, m Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta"), raw, 0o644)
}

// LodDir returns the subfolder holding region files for a given LOD.
func LodDir(dir string, lod int) string {
	return filepath.Join(dir, "regions", fmt.Sprintf("lod%d", lod))
}

// RegionFileName formats the r.X.Y.Z.vxr file name for a region
// coordinate.
func RegionFileName(x, y, z int32) string {
	return fmt.Sprintf("r.%d.%d.%d.vxr", x, y, z)
}
