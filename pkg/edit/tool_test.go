package edit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func newEmptyVolume(t *testing.T) *data.VoxelData {
	t.Helper()
	cfg := data.Config{
		BlockSizePo2: 4, // 16^3 blocks
		LodCount:     1,
		Bounds:       vxmath.Box3i{Min: vxmath.Vec3i{X: -8, Y: -8, Z: -8}, Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}},
	}
	return data.New(cfg, nil, nil, nil, false, nil)
}

func TestToolSetAndGetVoxelRoundTrips(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)

	require.NoError(t, tool.SetVoxel(vxmath.Vec3i{X: 3, Y: 4, Z: 5}, 7))
	v, err := tool.GetVoxel(vxmath.Vec3i{X: 3, Y: 4, Z: 5})
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)
}

func TestToolGetSetCrossesBlockBoundariesAndNegativeCoords(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)

	positions := []vxmath.Vec3i{
		{X: -1, Y: -1, Z: -1},
		{X: -17, Y: 0, Z: 0},
		{X: 15, Y: 16, Z: 17},
	}
	for i, p := range positions {
		require.NoError(t, tool.SetVoxel(p, uint64(i+1)))
	}
	for i, p := range positions {
		v, err := tool.GetVoxel(p)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), v)
	}
}

func TestDoPointWritesEraserValueInRemoveMode(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	tool.Value = 9
	tool.EraserValue = 0
	tool.Mode = ModeRemove

	pos := vxmath.Vec3i{X: 2, Y: 2, Z: 2}
	require.NoError(t, tool.SetVoxel(pos, 9))
	require.NoError(t, tool.DoPoint(pos))

	v, err := tool.GetVoxel(pos)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)
}

func TestDoSphereSetsVoxelsWithinRadiusOnTypeChannel(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	tool.Value = 3
	tool.Mode = ModeAdd

	center := vxmath.Vec3i{X: 0, Y: 0, Z: 0}
	require.NoError(t, tool.DoSphere(center, 2.0))

	inside, err := tool.GetVoxel(center)
	require.NoError(t, err)
	require.Equal(t, uint64(3), inside)

	outside, err := tool.GetVoxel(vxmath.Vec3i{X: 10, Y: 10, Z: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(0), outside)
}

func TestDoSphereBlendsSDFAccordingToMode(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	tool.Channel = voxelbuf.ChannelSDF
	tool.Mode = ModeAdd

	center := vxmath.Vec3i{X: 0, Y: 0, Z: 0}
	require.NoError(t, tool.DoSphere(center, 3.0))

	v, err := tool.GetVoxelF(center)
	require.NoError(t, err)
	require.Less(t, v, 0.0) // inside the added sphere, signed distance negative
}

func TestDoBoxFillsExactExtentOnTypeChannel(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	tool.Value = 5
	tool.Mode = ModeAdd

	begin := vxmath.Vec3i{X: 0, Y: 0, Z: 0}
	end := vxmath.Vec3i{X: 2, Y: 3, Z: 1}
	require.NoError(t, tool.DoBox(begin, end))

	inside, err := tool.GetVoxel(vxmath.Vec3i{X: 1, Y: 2, Z: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(5), inside)

	outside, err := tool.GetVoxel(vxmath.Vec3i{X: 2, Y: 0, Z: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(0), outside)
}

func TestBlurSmoothsAPerturbedVoxel(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	tool.Channel = voxelbuf.ChannelSDF

	spike := vxmath.Vec3i{X: 4, Y: 4, Z: 4}
	require.NoError(t, tool.SetVoxelF(spike, 10.0))

	box := vxmath.Box3i{Min: vxmath.Vec3i{X: 2, Y: 2, Z: 2}, Max: vxmath.Vec3i{X: 7, Y: 7, Z: 7}}
	require.NoError(t, tool.Blur(box))

	v, err := tool.GetVoxelF(spike)
	require.NoError(t, err)
	require.Less(t, v, 10.0) // averaged down by its 6 neighbors at the default +1.0
}

func TestPasteCopiesBufferIntoVolume(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)

	src := voxelbuf.Create(2)
	require.NoError(t, src.Set(voxelbuf.ChannelType, 0, 0, 0, 11))
	require.NoError(t, src.Set(voxelbuf.ChannelType, 1, 1, 1, 12))

	require.NoError(t, tool.Paste(vxmath.Vec3i{X: 5, Y: 5, Z: 5}, src, []voxelbuf.Channel{voxelbuf.ChannelType}, nil, 0))

	v, err := tool.GetVoxel(vxmath.Vec3i{X: 5, Y: 5, Z: 5})
	require.NoError(t, err)
	require.Equal(t, uint64(11), v)

	v2, err := tool.GetVoxel(vxmath.Vec3i{X: 6, Y: 6, Z: 6})
	require.NoError(t, err)
	require.Equal(t, uint64(12), v2)
}

func TestRandomTickOnlyInvokesForInterestingTypes(t *testing.T) {
	vd := newEmptyVolume(t)
	tool := New(vd)
	area := vxmath.Box3i{Min: vxmath.Vec3i{X: 0, Y: 0, Z: 0}, Max: vxmath.Vec3i{X: 4, Y: 4, Z: 4}}

	seedPos := vxmath.Vec3i{X: 1, Y: 1, Z: 1}
	require.NoError(t, tool.SetVoxel(seedPos, 42))

	seen := map[vxmath.Vec3i]uint64{}
	rng := rand.New(rand.NewSource(1))
	tool.RandomTick(area, 5000, map[uint64]bool{42: true}, func(pos vxmath.Vec3i, v uint64) {
		seen[pos] = v
	}, rng)

	require.NotEmpty(t, seen)
	for pos, v := range seen {
		require.Equal(t, seedPos, pos)
		require.Equal(t, uint64(42), v)
	}
}
