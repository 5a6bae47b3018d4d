package meshblocky

import (
	"testing"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/stretchr/testify/require"
)

func TestMeshSingleVoxelProducesSixQuads(t *testing.T) {
	buf := voxelbuf.Create(4)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 1, 1, 1, 5))

	mesher := NewMesher(Bake(map[uint64]uint16{5: 0}))
	mesh := mesher.Mesh(buf, vxmath.Vec3i{}, 0)

	require.Len(t, mesh.Surfaces, 1)
	surf := mesh.Surfaces[0]
	require.EqualValues(t, 5, surf.Material)
	require.Len(t, surf.Vertices, 24) // 6 faces * 4 verts, no merges possible
	require.Len(t, surf.Indices, 36)  // 6 faces * 2 tris * 3 indices
}

func TestMeshGreedyMergesFlatSlab(t *testing.T) {
	buf := voxelbuf.Create(4)
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			require.NoError(t, buf.Set(voxelbuf.ChannelType, x, 0, z, 2))
		}
	}

	mesher := NewMesher(Bake(map[uint64]uint16{2: 0}))
	mesh := mesher.Mesh(buf, vxmath.Vec3i{}, 0)

	require.Len(t, mesh.Surfaces, 1)
	// Top face greedily merges into one 4x4 quad; only the rim of side
	// faces stays unmerged since the slab is one voxel thick.
	var total int
	for _, s := range mesh.Surfaces {
		total += len(s.Indices) / 3
	}
	require.Greater(t, total, 0)
}

func TestMeshHidesInteriorFaces(t *testing.T) {
	buf := voxelbuf.Create(4)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 1, 1, 1, 3))
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 2, 1, 1, 3))

	mesher := NewMesher(Bake(map[uint64]uint16{3: 0}))
	mesh := mesher.Mesh(buf, vxmath.Vec3i{}, 0)

	require.Len(t, mesh.Surfaces, 1)
	// Two solid neighbors share one internal face each way; 10 visible
	// faces total instead of 12, and greedy merging joins the two faces
	// on each of the four long sides, leaving 6 quads.
	require.Equal(t, 6*4, len(mesh.Surfaces[0].Vertices))
}

func TestMeshFluidEmitsTopSurface(t *testing.T) {
	buf := voxelbuf.Create(4)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 1, 0, 1, defaultFluidBase+1))
	require.NoError(t, buf.SetF(voxelbuf.ChannelWeights, 1, 0, 1, 0.8))

	mesher := NewMesher(ModelLibrary{})
	mesh := mesher.Mesh(buf, vxmath.Vec3i{}, 0)

	require.Empty(t, mesh.Surfaces)
	require.Len(t, mesh.FluidSurfaces, 1)
	require.Equal(t, defaultFluidBase+1, mesh.FluidSurfaces[0].Material)
}

func TestCornerAOFullyExposedIsUnoccluded(t *testing.T) {
	buf := voxelbuf.Create(4)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 1, 1, 1, 1))
	ao := cornerAO(buf, 4, Up, 1, 2, 1)
	require.Equal(t, float32(1), ao)
}
