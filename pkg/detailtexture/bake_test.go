package detailtexture

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/meshtransvoxel"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func fillFlatSDF(t *testing.T, buf *voxelbuf.VoxelBuffer, groundY int) {
	t.Helper()
	size := buf.Size()
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			for y := 0; y < size; y++ {
				require.NoError(t, buf.SetF(voxelbuf.ChannelSDF, x, y, z, float64(y-groundY)))
			}
		}
	}
}

func TestBakeCellsProducesOneTilePerCell(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillFlatSDF(t, buf, 4)

	mesh := meshtransvoxel.Mesher{}.Mesh(buf, vxmath.Vec3i{}, 0)
	require.NotEmpty(t, mesh.Cells)

	r := NewRenderer(4, 8, false)
	r.BakeCells(buf, mesh, 0, 0, 8, 2, 8)
	require.Equal(t, len(mesh.Cells), r.Atlas.TileCount())
}

func TestGradientAtFlatPlanePointsUp(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillFlatSDF(t, buf, 4)

	n := gradientAt(buf, mgl32.Vec3{4, 4, 4})
	require.InDelta(t, 1, n.Y(), 0.2)
}

func TestTrilinearSDFInterpolatesBetweenVoxels(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillFlatSDF(t, buf, 4)

	mid := trilinearSDF(buf, mgl32.Vec3{4, 4.5, 4})
	require.InDelta(t, 0.5, mid, 0.01)
}
