package scheduler

import (
	"github.com/leterax/voxelengine/pkg/meshblocky"
	"github.com/leterax/voxelengine/pkg/meshtransvoxel"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// MeshOutput generalizes over the blocky and smooth meshers' distinct
// result types so MeshBlockTask can drive the detail-texture schedule
// step without a type switch. Native holds the mesher's own result for
// the upload stage to consume.
type MeshOutput struct {
	Empty  bool
	Native any

	// Cells is non-nil only for meshers that expose a cell iterator
	// (the smooth mesher); its presence is what step 4 of the task
	// checks before spawning a detail-texture subtask.
	Cells []meshtransvoxel.CellInfo
}

// Mesher is implemented by two small adapters over the blocky and
// smooth mesh builders (the meshers themselves do not implement it);
// MeshBlockTask calls it through ordinary interface dispatch.
type Mesher interface {
	MeshBlock(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) MeshOutput
}

// BlockyMesher adapts meshblocky.Mesher to the scheduler's Mesher
// interface. It never exposes a cell iterator.
type BlockyMesher struct {
	Mesher *meshblocky.Mesher
}

func (m BlockyMesher) MeshBlock(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) MeshOutput {
	mesh := m.Mesher.Mesh(buf, origin, lod)
	return MeshOutput{
		Empty:  len(mesh.Surfaces) == 0 && len(mesh.FluidSurfaces) == 0,
		Native: mesh,
	}
}

// TransvoxelMesher adapts meshtransvoxel.Mesher, surfacing its Cells so
// the detail-texture schedule step can bake one tile per cell.
type TransvoxelMesher struct{}

func (TransvoxelMesher) MeshBlock(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) MeshOutput {
	mesh := meshtransvoxel.Mesher{}.Mesh(buf, origin, lod)
	return MeshOutput{
		Empty:  len(mesh.Vertices) == 0,
		Native: mesh,
		Cells:  mesh.Cells,
	}
}
