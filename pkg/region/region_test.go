package region

import (
	"path/filepath"
	"testing"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/stretchr/testify/require"
)

func TestFileGrowthRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "r.0.0.0.vxr"), 4, 64)
	require.NoError(t, err)
	defer f.Close()

	payloads := make([][]byte, 6)
	for i := range payloads {
		payloads[i] = make([]byte, (i+1)*40)
		for j := range payloads[i] {
			payloads[i][j] = byte(i*7 + j)
		}
		require.NoError(t, f.WriteBlock(i, 0, 0, payloads[i]))
	}

	for i := range payloads {
		got, ok, err := f.ReadBlock(i, 0, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, payloads[i], got)
	}
}

func TestFileReadMissingBlockReportsAbsent(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "r.0.0.0.vxr"), 2, 64)
	require.NoError(t, err)
	defer f.Close()

	_, ok, err := f.ReadBlock(1, 1, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileSmallerRewriteReusesSpanInPlace(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "r.0.0.0.vxr"), 2, 64)
	require.NoError(t, err)
	defer f.Close()

	big := make([]byte, 300)
	require.NoError(t, f.WriteBlock(0, 0, 0, big))
	small := make([]byte, 10)
	require.NoError(t, f.WriteBlock(0, 0, 0, small))

	got, ok, err := f.ReadBlock(0, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, small, got)
}

func TestFileReopenPreservesHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.0.vxr")
	f, err := Open(path, 2, 64)
	require.NoError(t, err)
	payload := []byte{1, 2, 3, 4, 5}
	require.NoError(t, f.WriteBlock(1, 0, 1, payload))
	require.NoError(t, f.Close())

	f2, err := Open(path, 2, 64)
	require.NoError(t, err)
	defer f2.Close()
	got, ok, err := f2.ReadBlock(1, 0, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, got)
}

func TestEncodeDecodeBlockRoundTrip(t *testing.T) {
	buf := voxelbuf.Create(4)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 1, 1, 1, 9))
	require.NoError(t, buf.SetF(voxelbuf.ChannelSDF, 2, 2, 2, -0.5))

	encoded := EncodeBlock(buf)
	decoded, err := DecodeBlock(encoded, 4)
	require.NoError(t, err)

	v, err := decoded.Get(voxelbuf.ChannelType, 1, 1, 1)
	require.NoError(t, err)
	require.EqualValues(t, 9, v)

	f, err := decoded.GetF(voxelbuf.ChannelSDF, 2, 2, 2)
	require.NoError(t, err)
	require.InDelta(t, -0.5, f, 0.01)
}

func TestVoxelStreamRegionSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := DefaultMeta(3, 2, 3)
	s := NewVoxelStreamRegion(dir, m)
	defer s.Close()

	pos := vxmath.Vec3i{X: -3, Y: 5, Z: 100}
	buf := voxelbuf.Create(1 << m.BlockSizePo2)
	require.NoError(t, buf.Set(voxelbuf.ChannelType, 0, 0, 0, 3))

	require.NoError(t, s.SaveBlock(pos, 1, buf))

	loaded, ok, err := s.LoadBlock(pos, 1)
	require.NoError(t, err)
	require.True(t, ok)
	v, err := loaded.Get(voxelbuf.ChannelType, 0, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	_, ok, err = s.LoadBlock(vxmath.Vec3i{X: 999, Y: 999, Z: 999}, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMetaSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := DefaultMeta(4, 4, 6)
	require.NoError(t, SaveMeta(dir, m))
	got, err := LoadMeta(dir)
	require.NoError(t, err)
	require.Equal(t, m, got)
}
