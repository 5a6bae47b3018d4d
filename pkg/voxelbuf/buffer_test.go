package voxelbuf

import (
	"testing"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/stretchr/testify/require"
)

func TestUniformChannelReadsWithoutAllocation(t *testing.T) {
	b := Create(16)
	v, err := b.Get(ChannelType, 3, 4, 5)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)

	compression, _, _, raw := b.ExportChannel(ChannelType)
	require.Equal(t, CompressionUniform, compression)
	require.Nil(t, raw)
}

func TestSetDecompressesLazily(t *testing.T) {
	b := Create(16)
	require.NoError(t, b.Set(ChannelType, 1, 1, 1, 7))

	v, err := b.Get(ChannelType, 1, 1, 1)
	require.NoError(t, err)
	require.EqualValues(t, 7, v)

	v2, err := b.Get(ChannelType, 2, 2, 2)
	require.NoError(t, err)
	require.EqualValues(t, 0, v2)
}

func TestCompressionTransparency(t *testing.T) {
	b := Create(8)
	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 8, Y: 8, Z: 8}}
	require.NoError(t, b.FillArea(ChannelType, box, 5))

	before := make([]uint64, 0, 512)
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			for z := 0; z < 8; z++ {
				v, _ := b.Get(ChannelType, x, y, z)
				before = append(before, v)
			}
		}
	}

	b.CompressUniformChannels()

	i := 0
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			for z := 0; z < 8; z++ {
				v, err := b.Get(ChannelType, x, y, z)
				require.NoError(t, err)
				require.Equal(t, before[i], v)
				i++
			}
		}
	}
}

func TestCopyPasteRoundTrip(t *testing.T) {
	src := Create(16)
	for x := 0; x < 16; x++ {
		require.NoError(t, src.Set(ChannelType, x, 0, 0, uint64(x)))
	}

	dst := Create(16)
	box := vxmath.Box3i{Max: vxmath.Vec3i{X: 16, Y: 16, Z: 16}}
	require.NoError(t, dst.CopyFrom(src, box, vxmath.Vec3i{}, []Channel{ChannelType}))

	dst2 := Create(16)
	require.NoError(t, dst2.CopyFrom(dst, box, vxmath.Vec3i{}, []Channel{ChannelType}))

	for x := 0; x < 16; x++ {
		a, _ := dst.Get(ChannelType, x, 0, 0)
		b, _ := dst2.Get(ChannelType, x, 0, 0)
		require.Equal(t, a, b)
	}
}

func TestSDFQuantizationRoundTrip(t *testing.T) {
	b := Create(4)
	require.NoError(t, b.SetChannelDepth(ChannelSDF, Depth8))
	require.NoError(t, b.SetF(ChannelSDF, 0, 0, 0, 0.5))
	v, err := b.GetF(ChannelSDF, 0, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v, 0.01)
}

func TestSDFSaturatesOutsideRange(t *testing.T) {
	b := Create(4)
	require.NoError(t, b.SetChannelDepth(ChannelSDF, Depth8))
	require.NoError(t, b.SetF(ChannelSDF, 0, 0, 0, 5.0))
	v, err := b.GetF(ChannelSDF, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
}

func TestInvalidChannelReported(t *testing.T) {
	b := Create(4)
	_, err := b.Get(Channel(99), 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidChannel)
}

func TestBoundsViolationReported(t *testing.T) {
	b := Create(4)
	_, err := b.Get(ChannelType, -1, 0, 0)
	require.ErrorIs(t, err, ErrBoundsViolation)
}

func TestFillAreaClipsSilently(t *testing.T) {
	b := Create(4)
	box := vxmath.Box3i{Min: vxmath.Vec3i{X: -2, Y: -2, Z: -2}, Max: vxmath.Vec3i{X: 2, Y: 2, Z: 2}}
	require.NoError(t, b.FillArea(ChannelType, box, 9))
	v, err := b.Get(ChannelType, 0, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 9, v)
}
