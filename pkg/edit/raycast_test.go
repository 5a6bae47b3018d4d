package edit

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/generator"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func newPlaneVolume(t *testing.T, channel voxelbuf.Channel, voxelType uint64, height float64) *data.VoxelData {
	t.Helper()
	cfg := data.Config{
		BlockSizePo2: 5, // 32^3 blocks, large enough to hold one un-padded column
		LodCount:     1,
		Bounds:       vxmath.Box3i{Min: vxmath.Vec3i{X: -4, Y: -4, Z: -4}, Max: vxmath.Vec3i{X: 4, Y: 4, Z: 4}},
	}
	gen := generator.Flat{Height: height, Channel: channel, VoxelType: voxelType}
	return data.New(cfg, gen, nil, nil, false, nil)
}

func TestRaycastSDFHitsFlatPlaneFromAbove(t *testing.T) {
	const planeHeight = 5.0
	vd := newPlaneVolume(t, voxelbuf.ChannelSDF, 0, planeHeight)

	origin := mgl32.Vec3{5, planeHeight + 2, 5}
	hit, ok := RaycastSDF(vd, origin, mgl32.Vec3{0, -1, 0}, 10.0)
	require.True(t, ok)
	require.InDelta(t, 2.0, hit.DistanceAlongRay, 0.1)
	require.InDelta(t, 0.0, hit.Normal.X(), 0.1)
	require.InDelta(t, 1.0, hit.Normal.Y(), 0.1)
}

func TestRaycastSDFMissesBeyondMaxDistance(t *testing.T) {
	const planeHeight = 5.0
	vd := newPlaneVolume(t, voxelbuf.ChannelSDF, 0, planeHeight)

	origin := mgl32.Vec3{5, planeHeight + 50, 5}
	_, ok := RaycastSDF(vd, origin, mgl32.Vec3{0, -1, 0}, 10.0)
	require.False(t, ok)
}

func TestRaycastBlockyHitsGroundFromAbove(t *testing.T) {
	const floorHeight = 2
	vd := newPlaneVolume(t, voxelbuf.ChannelType, 1, floorHeight)

	origin := mgl32.Vec3{5.5, floorHeight + 2, 5.5}
	hit, ok := RaycastBlocky(vd, origin, mgl32.Vec3{0, -1, 0}, 10.0)
	require.True(t, ok)
	require.Equal(t, vxmath.Vec3i{X: 5, Y: floorHeight - 1, Z: 5}, hit.Position)
	require.Equal(t, vxmath.Vec3i{X: 5, Y: floorHeight, Z: 5}, hit.PreviousPosition)
	require.Equal(t, mgl32.Vec3{0, 1, 0}, hit.Normal)
}

func TestRaycastBlockyMissesThroughOpenAir(t *testing.T) {
	vd := newPlaneVolume(t, voxelbuf.ChannelType, 1, -100)

	origin := mgl32.Vec3{0, 0, 0}
	_, ok := RaycastBlocky(vd, origin, mgl32.Vec3{0, -1, 0}, 5.0)
	require.False(t, ok)
}

func TestFloorDiv32HandlesNegativeCoordinates(t *testing.T) {
	require.Equal(t, int32(-1), floorDiv32(-1, 8))
	require.Equal(t, int32(-1), floorDiv32(-8, 8))
	require.Equal(t, int32(-2), floorDiv32(-9, 8))
	require.Equal(t, int32(0), floorDiv32(0, 8))
	require.Equal(t, int32(0), floorDiv32(7, 8))
}

func TestFloorMod32StaysNonNegative(t *testing.T) {
	require.Equal(t, int32(7), floorMod32(-1, 8))
	require.Equal(t, int32(0), floorMod32(-8, 8))
	require.Equal(t, int32(1), floorMod32(-7, 8))
}
