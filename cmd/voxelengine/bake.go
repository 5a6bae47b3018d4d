package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leterax/voxelengine/internal/config"
	"github.com/leterax/voxelengine/internal/telemetry"
	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/generator"
	"github.com/leterax/voxelengine/pkg/modifier"
	"github.com/leterax/voxelengine/pkg/region"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

var (
	bakeOutDir string
	bakeRadius int
)

var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Generate LOD-0 blocks around the origin and write them to a region directory",
	Long: `bake runs the generator over a box of blocks and persists each one
through pkg/region, without ever running a mesher -- useful for
pre-populating a streaming directory before a run.`,
	RunE: runBake,
}

func init() {
	bakeCmd.Flags().StringVar(&bakeOutDir, "out", "./regions", "region directory to write into")
	bakeCmd.Flags().IntVar(&bakeRadius, "radius", 4, "block radius (in blocks) to bake around the origin")
}

func runBake(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}
	tel, err := telemetry.New(nil)
	if err != nil {
		return fmt.Errorf("bake: telemetry: %w", err)
	}
	defer tel.Sync()
	log := tel.Logger

	meta := region.DefaultMeta(cfg.BlockSizePo2, cfg.RegionSizePo2, cfg.LodCount)
	meta.SectorSize = cfg.SectorSize
	stream := region.NewVoxelStreamRegion(bakeOutDir, meta)
	defer stream.Close()

	gen := generator.Flat{Height: 4, Channel: 0, VoxelType: 1}
	vd := data.New(data.Config{
		BlockSizePo2: uint8(cfg.BlockSizePo2),
		LodCount:     uint8(cfg.LodCount),
		Bounds: vxmath.Box3i{
			Min: vxmath.Vec3i{X: -1 << 10, Y: -1 << 10, Z: -1 << 10},
			Max: vxmath.Vec3i{X: 1 << 10, Y: 1 << 10, Z: 1 << 10},
		},
	}, gen, nil, modifier.NewStack(), false, log)

	written := 0
	for dz := -bakeRadius; dz <= bakeRadius; dz++ {
		for dy := -bakeRadius; dy <= bakeRadius; dy++ {
			for dx := -bakeRadius; dx <= bakeRadius; dx++ {
				pos := vxmath.Vec3i{X: int32(dx), Y: int32(dy), Z: int32(dz)}
				block := vd.EnsureBlock(pos, 0)
				block.RLock()
				err := stream.SaveBlock(pos, 0, block.Buffer)
				block.RUnlock()
				if err != nil {
					return fmt.Errorf("bake: saving block %v: %w", pos, err)
				}
				written++
			}
		}
	}

	log.Sugar().Infof("baked %d blocks into %s", written, bakeOutDir)
	return nil
}
