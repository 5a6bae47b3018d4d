package data

import (
	"testing"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/stretchr/testify/require"
)

// flatGenerator fills TYPE=1 for y below a threshold, standing in for a
// real generator in tests.
type flatGenerator struct {
	groundY int32
}

func (g flatGenerator) Generate(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := int32(1) << lod
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			worldY := origin.Y + int32(y)*spacing
			for z := 0; z < size; z++ {
				if worldY < g.groundY {
					_ = buf.Set(voxelbuf.ChannelType, x, y, z, 1)
				}
			}
		}
	}
}

func testConfig() Config {
	return Config{
		BlockSizePo2: 3, // 8^3 blocks
		LodCount:     3,
		Bounds:       vxmath.Box3i{Min: vxmath.Vec3i{X: -16, Y: -16, Z: -16}, Max: vxmath.Vec3i{X: 16, Y: 16, Z: 16}},
	}
}

func TestEmptyVolumeNoGeneratorReturnsAirAndLoaded(t *testing.T) {
	vd := New(testConfig(), nil, nil, nil, false, nil)
	dst := voxelbuf.Create(8)
	complete, err := vd.Copy(vxmath.Vec3i{}, dst, []voxelbuf.Channel{voxelbuf.ChannelType})
	require.NoError(t, err)
	require.True(t, complete)
	v, _ := dst.Get(voxelbuf.ChannelType, 0, 0, 0)
	require.EqualValues(t, 0, v)

	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 1, Y: 1, Z: 1}}
	require.True(t, vd.IsAreaLoaded(box))
}

func TestEmptyVolumeStreamingReportsNotLoaded(t *testing.T) {
	vd := New(testConfig(), nil, nil, nil, true, nil)
	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 1, Y: 1, Z: 1}}
	require.False(t, vd.IsAreaLoaded(box))
}

func TestCopyFallsThroughToGenerator(t *testing.T) {
	vd := New(testConfig(), flatGenerator{groundY: 5}, nil, nil, false, nil)
	dst := voxelbuf.Create(8)
	_, err := vd.Copy(vxmath.Vec3i{X: 0, Y: 0, Z: 0}, dst, []voxelbuf.Channel{voxelbuf.ChannelType})
	require.NoError(t, err)
	v, _ := dst.Get(voxelbuf.ChannelType, 0, 0, 0)
	require.EqualValues(t, 1, v)
	v2, _ := dst.Get(voxelbuf.ChannelType, 0, 4, 0)
	require.EqualValues(t, 1, v2) // worldY=4 < groundY=5
	v3, _ := dst.Get(voxelbuf.ChannelType, 0, 6, 0)
	require.EqualValues(t, 0, v3) // worldY=6 >= groundY=5
}

func TestSphereEditThenCopyPasteRestoresPreEditValues(t *testing.T) {
	vd := New(testConfig(), flatGenerator{groundY: 5}, nil, nil, false, nil)
	box := vxmath.Box3i{Min: vxmath.Vec3i{X: -8, Y: -8, Z: -8}, Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}}
	vd.PreGenerateBox(box)

	backup := voxelbuf.Create(16)
	_, err := vd.Copy(box.Min, backup, []voxelbuf.Channel{voxelbuf.ChannelType})
	require.NoError(t, err)

	// Simulate an edit: clear a region to air.
	edited := voxelbuf.Create(16)
	_, _ = vd.Copy(box.Min, edited, []voxelbuf.Channel{voxelbuf.ChannelType})
	require.NoError(t, edited.FillArea(voxelbuf.ChannelType, vxmath.Box3i{Max: vxmath.Vec3i{X: 16, Y: 16, Z: 16}}, 0))
	require.NoError(t, vd.Paste(box.Min, edited, []voxelbuf.Channel{voxelbuf.ChannelType}, true, nil, 0))

	// Undo by pasting the backup back.
	require.NoError(t, vd.Paste(box.Min, backup, []voxelbuf.Channel{voxelbuf.ChannelType}, true, nil, 0))

	after := voxelbuf.Create(16)
	_, err = vd.Copy(box.Min, after, []voxelbuf.Channel{voxelbuf.ChannelType})
	require.NoError(t, err)

	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				a, _ := backup.Get(voxelbuf.ChannelType, x, y, z)
				b, _ := after.Get(voxelbuf.ChannelType, x, y, z)
				require.Equal(t, a, b)
			}
		}
	}
}

func TestUpdateLodsDownsamplesAllEightChildren(t *testing.T) {
	cfg := Config{BlockSizePo2: 2, LodCount: 2, Bounds: vxmath.Box3i{Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}}}
	vd := New(cfg, flatGenerator{groundY: 0}, nil, nil, false, nil)
	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}}
	vd.PreGenerateBox(box)

	// Edit all 8 LOD-0 children of parent (0,0,0) to a known uniform type.
	var edited []vxmath.Vec3i
	for x := int32(0); x < 2; x++ {
		for y := int32(0); y < 2; y++ {
			for z := int32(0); z < 2; z++ {
				pos := vxmath.Vec3i{X: x, Y: y, Z: z}
				b, ok := vd.Map(0).Get(pos)
				require.True(t, ok)
				require.NoError(t, b.Buffer.FillArea(voxelbuf.ChannelType, vxmath.Box3i{Max: vxmath.Vec3i{X: 4, Y: 4, Z: 4}}, 3))
				b.SetEdited(true)
				edited = append(edited, pos)
			}
		}
	}

	vd.UpdateLods(edited)

	parent, ok := vd.Map(1).Get(vxmath.Vec3i{})
	require.True(t, ok)
	v, _ := parent.Buffer.Get(voxelbuf.ChannelType, 0, 0, 0)
	require.EqualValues(t, 3, v)
}

func TestBroadMipTestIsConservative(t *testing.T) {
	vd := New(testConfig(), nil, nil, nil, false, nil)
	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}}
	require.False(t, vd.HasBlocksWithVoxelsInAreaBroadMipTest(box))

	vd.PreGenerateBox(box)
	vd.MarkAreaModified(box)
	vd.UpdateLods([]vxmath.Vec3i{{}})
	require.True(t, vd.HasBlocksWithVoxelsInAreaBroadMipTest(box))
}
