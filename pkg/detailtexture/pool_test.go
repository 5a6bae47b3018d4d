package detailtexture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrowCapacityFollowsSpecifiedRule(t *testing.T) {
	require.Equal(t, 2, growCapacity(1))
	require.Equal(t, 3, growCapacity(2))
	require.Equal(t, 15, growCapacity(10))
	require.Equal(t, 1, growCapacity(0))
}

func TestBucketForRoundsUpToCoveringCapacity(t *testing.T) {
	_, cap := bucketFor(100)
	require.GreaterOrEqual(t, cap, 100)
}

func TestBufferPoolReusesReleasedAllocation(t *testing.T) {
	p := NewBufferPool()
	buf := p.Acquire(256)
	require.Len(t, buf.Bytes, 256)
	backing := &buf.Bytes[0]
	buf.Release()

	buf2 := p.Acquire(256)
	require.Equal(t, backing, &buf2.Bytes[0])
}

func TestBufferPoolAcquireZeroesNothingButSizesCorrectly(t *testing.T) {
	p := NewBufferPool()
	buf := p.Acquire(10)
	require.Len(t, buf.Bytes, 10)
	require.Equal(t, 10, buf.Len)
}

func TestTileResolutionIsMonotonicNonIncreasing(t *testing.T) {
	prev := TileResolution(16, 4, 16, 0, 0)
	for lod := uint8(1); lod < 6; lod++ {
		cur := TileResolution(16, 4, 16, lod, 0)
		require.LessOrEqual(t, cur, prev)
		require.GreaterOrEqual(t, cur, 4)
		prev = cur
	}
}

func TestTileResolutionClampsAtMinimum(t *testing.T) {
	require.Equal(t, 4, TileResolution(16, 4, 16, 10, 0))
}

func TestTileResolutionBeforeBeginLODStaysAtBase(t *testing.T) {
	require.Equal(t, 16, TileResolution(16, 4, 16, 0, 2))
}
