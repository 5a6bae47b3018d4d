package detailtexture

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestTileAtlasAllocateIsIdempotentPerCell(t *testing.T) {
	a := NewTileAtlas(8, 4, false)
	key := CellKey{X: 1, Y: 2, Z: 3}
	idx1 := a.Allocate(key)
	idx2 := a.Allocate(key)
	require.Equal(t, idx1, idx2)
	require.Equal(t, 1, a.TileCount())
}

func TestTileAtlasNonOctahedralUsesThreeBytesPerTexel(t *testing.T) {
	a := NewTileAtlas(2, 4, false)
	a.WriteTexel(CellKey{}, 0, 0, mgl32.Vec3{0, 1, 0})
	require.Len(t, a.Bytes(), 2*2*3)
}

func TestTileAtlasOctahedralUsesTwoBytesPerTexel(t *testing.T) {
	a := NewTileAtlas(2, 4, true)
	a.WriteTexel(CellKey{}, 0, 0, mgl32.Vec3{0, 1, 0})
	require.Len(t, a.Bytes(), 2*2*2)
}

func TestTileAtlasWriteTexelRecordsUpwardNormalNearMidpoint(t *testing.T) {
	a := NewTileAtlas(1, 4, false)
	a.WriteTexel(CellKey{}, 0, 0, mgl32.Vec3{0, 1, 0})
	require.InDelta(t, 127, a.Bytes()[0], 2)
	require.Equal(t, byte(255), a.Bytes()[1])
	require.InDelta(t, 127, a.Bytes()[2], 2)
}

func TestTileAtlasLookupImageMatchesAllocationCount(t *testing.T) {
	a := NewTileAtlas(4, 4, false)
	a.Allocate(CellKey{X: 0})
	a.Allocate(CellKey{X: 1})
	require.Len(t, a.LookupImage(), 2*2)
}
