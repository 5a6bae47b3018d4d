package meshtransvoxel

import (
	"testing"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/stretchr/testify/require"
)

func fillPlane(t *testing.T, buf *voxelbuf.VoxelBuffer, groundY int) {
	t.Helper()
	size := buf.Size()
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			for y := 0; y < size; y++ {
				dist := float64(y - groundY)
				require.NoError(t, buf.SetF(voxelbuf.ChannelSDF, x, y, z, dist))
			}
		}
	}
}

func TestMeshFlatPlaneProducesVertices(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillPlane(t, buf, 4)

	m := Mesher{}.Mesh(buf, vxmath.Vec3i{}, 0)
	require.NotEmpty(t, m.Vertices)
	require.NotEmpty(t, m.Indices)
	require.True(t, len(m.Indices)%3 == 0)
}

func TestMeshUniformVolumeProducesNoGeometry(t *testing.T) {
	buf := voxelbuf.Create(8)
	// Default SDF encodes "far outside": uniform channel, no crossings.
	m := Mesher{}.Mesh(buf, vxmath.Vec3i{}, 0)
	require.Empty(t, m.Vertices)
	require.Empty(t, m.Indices)
}

func TestMeshVertexPositionsStayNearSurface(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillPlane(t, buf, 4)

	m := Mesher{}.Mesh(buf, vxmath.Vec3i{}, 0)
	for _, v := range m.Vertices {
		require.InDelta(t, 4, v.Position.Y(), 1.5)
	}
}

func TestWeldSeamSnapsBorderVertices(t *testing.T) {
	buf := voxelbuf.Create(8)
	fillPlane(t, buf, 4)
	m := Mesher{}.Mesh(buf, vxmath.Vec3i{}, 0)

	WeldSeam(m, 8, 1, FacePosX)
	require.NotPanics(t, func() { WeldSeam(m, 8, 1, FaceNegZ) })
}
