package scheduler

import (
	"context"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/detailtexture"
	"github.com/leterax/voxelengine/pkg/meshtransvoxel"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

type meshStage uint8

const (
	stageGather meshStage = iota
	stageFill
	stageMesh
	stageDetailSchedule
	stageUpload
	stageDone
)

// DetailConfig controls whether and how a mesh task bakes a detail
// texture for its output.
type DetailConfig struct {
	Enabled        bool
	BeginLOD       uint8
	BaseTile       int
	MinTile        int
	MaxTile        int
	Octahedral     bool
	AtlasTilesWide int
}

// MeshBlockTask gathers a block and its neighbors, meshes the padded
// buffer, and optionally schedules a detail-texture bake, all through
// explicit stage methods rather than one blocking call, mirroring the
// design notes' coroutine-style task with a `stage` discriminant. Run
// drives the stages to completion or to the point where the task drops
// itself as cancelled; this port has no GPU fill/upload offload, so Run
// never actually suspends, but the stage field is where a future GPU
// wait would hook in between Fill and Mesh.
type MeshBlockTask struct {
	LOD    uint8
	Pos    vxmath.Vec3i
	Volume *data.VoxelData
	Mesher Mesher
	Detail DetailConfig
	Baker  *detailtexture.Renderer

	ViewerPos      vxmath.Vec3i
	DropDistanceSq int64

	stage     meshStage
	cancelled bool
	padded    *voxelbuf.VoxelBuffer
	output    MeshOutput
}

func (t *MeshBlockTask) Key() Key { return Key{LOD: t.LOD, Pos: t.Pos} }

// Priority is distance² from the viewer, biased so coarser LODs sort
// ahead of finer ones at comparable distance (the scheduler sorts
// ascending, so a lower value runs first).
func (t *MeshBlockTask) Priority() int64 {
	worldPos := t.Pos.Shl(t.LOD)
	distSq := worldPos.DistanceSquared(t.ViewerPos)
	return distSq - int64(t.LOD)<<40
}

func (t *MeshBlockTask) IsCancelled() bool {
	if t.cancelled {
		return true
	}
	worldPos := t.Pos.Shl(t.LOD)
	return worldPos.DistanceSquared(t.ViewerPos) > t.DropDistanceSq
}

// Cancel marks the task dropped; checked at every stage boundary.
func (t *MeshBlockTask) Cancel() { t.cancelled = true }

func (t *MeshBlockTask) Run(ctx context.Context) Result {
	for t.stage != stageDone {
		if t.IsCancelled() {
			return Result{Key: t.Key(), Tag: ResultDropped}
		}
		select {
		case <-ctx.Done():
			return Result{Key: t.Key(), Tag: ResultDropped}
		default:
		}

		switch t.stage {
		case stageGather:
			t.padded = gatherPadded(t.Volume, t.Pos, t.LOD)
			t.stage = stageFill
		case stageFill:
			// Missing neighbors were already faulted in by
			// gatherPadded's EnsureBlock calls; a GPU-offloaded
			// generator fill would suspend here instead.
			t.stage = stageMesh
		case stageMesh:
			t.output = t.Mesher.MeshBlock(t.padded, t.meshOrigin(), t.LOD)
			t.stage = stageDetailSchedule
		case stageDetailSchedule:
			t.scheduleDetail()
			t.stage = stageUpload
		case stageUpload:
			t.stage = stageDone
		}
	}

	return Result{Key: t.Key(), Tag: ResultMeshed, Output: t.output}
}

// meshOrigin is the world-voxel position of the padded buffer's (0,0,0)
// corner: the anchor block's world origin minus the padding halo,
// aligning emitted mesh coordinates to world voxel space per the
// chosen LOD-0 alignment convention (padding offset subtracted, no
// chunk-corner bias).
func (t *MeshBlockTask) meshOrigin() vxmath.Vec3i {
	blockOrigin := t.Pos.Mul(int32(t.Volume.BlockSize())).Shl(t.LOD)
	halo := vxmath.Vec3i{X: Padding, Y: Padding, Z: Padding}.Shl(t.LOD)
	return blockOrigin.Sub(halo)
}

// scheduleDetail bakes one tile per cell when detail texturing is on,
// the task's LOD has reached the configured threshold, the mesh is
// non-empty, and the mesher exposed a cell iterator (smooth mesher
// only -- the blocky mesher's MeshOutput.Cells is always nil).
func (t *MeshBlockTask) scheduleDetail() {
	if !t.Detail.Enabled || t.Baker == nil {
		return
	}
	if t.LOD < t.Detail.BeginLOD || t.output.Empty || t.output.Cells == nil {
		return
	}
	mesh, ok := t.output.Native.(*meshtransvoxel.Mesh)
	if !ok {
		return
	}
	t.Baker.BakeCells(t.padded, mesh, t.LOD, t.Detail.BeginLOD, t.Detail.BaseTile, t.Detail.MinTile, t.Detail.MaxTile)
}
