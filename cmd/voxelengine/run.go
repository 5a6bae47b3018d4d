package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leterax/voxelengine/internal/config"
	"github.com/leterax/voxelengine/internal/telemetry"
	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/engine"
	"github.com/leterax/voxelengine/pkg/generator"
	"github.com/leterax/voxelengine/pkg/meshblocky"
	"github.com/leterax/voxelengine/pkg/modifier"
	"github.com/leterax/voxelengine/pkg/region"
	"github.com/leterax/voxelengine/pkg/scheduler"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

var (
	runRadius     int
	runIterations int
	runNoise      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the engine, mesh a radius of chunks around the origin, then shut down",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runRadius, "radius", 2, "chunk radius (in blocks) to mesh around the origin")
	runCmd.Flags().IntVar(&runIterations, "iterations", 1, "number of ApplyResults poll iterations before shutting down")
	runCmd.Flags().BoolVar(&runNoise, "noise", false, "use the Noise generator instead of the Flat generator")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	tel, err := telemetry.New(nil)
	if err != nil {
		return fmt.Errorf("run: telemetry: %w", err)
	}
	defer tel.Sync()
	log := tel.Logger

	var gen data.Generator
	if runNoise {
		gen = generator.Noise{Seed: 1, Frequency: 0.05, Amplitude: 12, HeightBias: 0}
	} else {
		gen = generator.Flat{Height: 4, Channel: 0, VoxelType: 1}
	}

	var stream data.Stream
	if cfg.StreamingDir != "" {
		meta := region.DefaultMeta(cfg.BlockSizePo2, cfg.RegionSizePo2, cfg.LodCount)
		meta.SectorSize = cfg.SectorSize
		stream = region.NewVoxelStreamRegion(cfg.StreamingDir, meta)
	}

	vd := data.New(data.Config{
		BlockSizePo2: uint8(cfg.BlockSizePo2),
		LodCount:     uint8(cfg.LodCount),
		Bounds: vxmath.Box3i{
			Min: vxmath.Vec3i{X: -1 << 10, Y: -1 << 10, Z: -1 << 10},
			Max: vxmath.Vec3i{X: 1 << 10, Y: 1 << 10, Z: 1 << 10},
		},
	}, gen, stream, modifier.NewStack(), stream != nil, log)

	sched := scheduler.New(cfg.WorkerCount, cfg.SyncInterval, log)
	var gpu *scheduler.GPURunner
	e := engine.New(sched, gpu, log)

	meshCache, err := engine.NewMeshCache(4096)
	if err != nil {
		return fmt.Errorf("run: mesh cache: %w", err)
	}
	e.MeshCache = meshCache

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	e.Boot(ctx)
	defer e.Shutdown()

	meshedCount := 0
	id := e.Registry.Register(vd, engine.Callbacks{
		Data: "run",
		MeshOutputCallback: func(data any, key scheduler.Key, output scheduler.MeshOutput) {
			meshedCount++
			log.Info("mesh applied", zap.Any("key", key), zap.Bool("empty", output.Empty))
		},
	})
	defer e.Registry.Unregister(id)

	mesher := scheduler.BlockyMesher{Mesher: meshblocky.NewMesher(meshblocky.Bake(map[uint64]uint16{1: 0}))}

	for dz := -runRadius; dz <= runRadius; dz++ {
		for dy := -runRadius; dy <= runRadius; dy++ {
			for dx := -runRadius; dx <= runRadius; dx++ {
				task := &scheduler.MeshBlockTask{
					LOD:            0,
					Pos:            vxmath.Vec3i{X: int32(dx), Y: int32(dy), Z: int32(dz)},
					Volume:         vd,
					Mesher:         mesher,
					ViewerPos:      vxmath.Vec3i{},
					DropDistanceSq: int64(cfg.DropDistance * cfg.DropDistance),
				}
				e.SubmitMeshTask(id, task)
			}
		}
	}

pollLoop:
	for i := 0; i < runIterations; i++ {
		select {
		case <-ctx.Done():
			break pollLoop
		case <-time.After(cfg.SyncInterval * 2):
		}
		e.ApplyResults()
	}
	e.ApplyResults()

	log.Info("run complete", zap.Int("meshed", meshedCount))
	return nil
}
