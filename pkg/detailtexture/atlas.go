package detailtexture

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CellKey identifies the mesh cell a tile was baked for, matching
// meshtransvoxel.CellInfo's grid coordinate.
type CellKey struct {
	X, Y, Z int
}

// BytesPerTexel is 3 (R,G,B normal) unless octahedral encoding packs
// the normal into two channels.
func bytesPerTexel(octahedral bool) int {
	if octahedral {
		return 2
	}
	return 3
}

// TileAtlas packs per-cell detail tiles into one pixel-tight byte
// array, alongside a lookup image that maps a mesh cell to its tile
// index. Tiles are stored one after another in allocation order, each
// tile's texels row-major; the array grows by one tile per new cell.
// TilesWide is carried along but does not affect the byte layout.
type TileAtlas struct {
	TileRes    int
	Octahedral bool
	TilesWide  int

	pixels []byte
	lookup map[CellKey]int
	count  int
}

func NewTileAtlas(tileRes, tilesWide int, octahedral bool) *TileAtlas {
	return &TileAtlas{
		TileRes:    tileRes,
		Octahedral: octahedral,
		TilesWide:  tilesWide,
		lookup:     make(map[CellKey]int),
	}
}

// Allocate reserves the next free tile slot for cell, growing the pixel
// buffer as needed. Returns the existing slot if cell was already baked.
func (a *TileAtlas) Allocate(cell CellKey) int {
	if idx, ok := a.lookup[cell]; ok {
		return idx
	}
	idx := a.count
	a.count++
	a.lookup[cell] = idx

	tileBytes := a.TileRes * a.TileRes * bytesPerTexel(a.Octahedral)
	needed := (idx + 1) * tileBytes
	for len(a.pixels) < needed {
		a.pixels = append(a.pixels, make([]byte, tileBytes)...)
	}
	return idx
}

// WriteTexel stores a baked normal at (tx,ty) within the tile for cell.
// The normal is expected unit-length; non-octahedral mode stores it
// directly as signed-to-unsigned mapped bytes, octahedral mode projects
// it onto the octahedron and stores the 2D coordinate.
func (a *TileAtlas) WriteTexel(cell CellKey, tx, ty int, normal mgl32.Vec3) {
	idx, ok := a.lookup[cell]
	if !ok {
		idx = a.Allocate(cell)
	}
	bpt := bytesPerTexel(a.Octahedral)
	tileBytes := a.TileRes * a.TileRes * bpt
	base := idx*tileBytes + (ty*a.TileRes+tx)*bpt

	if a.Octahedral {
		u, v := octEncode(normal)
		a.pixels[base] = floatToByte(u)
		a.pixels[base+1] = floatToByte(v)
		return
	}
	a.pixels[base] = floatToByte(normal.X())
	a.pixels[base+1] = floatToByte(normal.Y())
	a.pixels[base+2] = floatToByte(normal.Z())
}

// Bytes returns the packed atlas pixel data.
func (a *TileAtlas) Bytes() []byte { return a.pixels }

// TileCount returns how many tile slots have been allocated.
func (a *TileAtlas) TileCount() int { return a.count }

// LookupImage returns an R8G8 image, one texel per baked cell in
// allocation order, packing the cell's (X,Z) grid coordinate into the
// two channels so a renderer can map a mesh cell back to its tile index
// via a second indirection (cell coordinate -> slot -> atlas offset).
func (a *TileAtlas) LookupImage() []byte {
	out := make([]byte, a.count*2)
	for cell, idx := range a.lookup {
		out[idx*2] = byte(cell.X)
		out[idx*2+1] = byte(cell.Z)
	}
	return out
}

func floatToByte(v float32) byte {
	clamped := (v + 1) * 0.5
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 1 {
		clamped = 1
	}
	return byte(clamped*255 + 0.5)
}

// octEncode maps a unit vector to octahedral UV coordinates in [-1,1].
func octEncode(n mgl32.Vec3) (u, v float32) {
	l1norm := abs32(n.X()) + abs32(n.Y()) + abs32(n.Z())
	if l1norm == 0 {
		return 0, 0
	}
	p := mgl32.Vec2{n.X() / l1norm, n.Z() / l1norm}
	if n.Y() >= 0 {
		return p.X(), p.Y()
	}
	return octWrap(p.X(), p.Y()), octWrap(p.Y(), p.X())
}

func octWrap(a, b float32) float32 {
	sign := float32(1)
	if a < 0 {
		sign = -1
	}
	return (1 - abs32(b)) * sign
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
