package detailtexture

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/meshtransvoxel"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

const maxMarchSteps = 32
const hitEpsilon = 0.01

// Renderer bakes per-cell detail tiles into a TileAtlas by sphere
// tracing the SDF channel of the source buffer. Every cell produced by
// the smooth mesher gets one tile; each texel casts a short ray toward
// the cell from just outside the surface along the cell's gradient
// normal and records the SDF gradient where it crosses zero (the cell's
// own normal when the ray misses).
type Renderer struct {
	Atlas *TileAtlas
}

func NewRenderer(tileRes, tilesWide int, octahedral bool) *Renderer {
	return &Renderer{Atlas: NewTileAtlas(tileRes, tilesWide, octahedral)}
}

// BakeCells renders one tile per cell in mesh.Cells, sampling buf's SDF
// channel. lod only affects tile resolution, not world spacing: the
// bake walks in buffer-local units.
func (r *Renderer) BakeCells(buf *voxelbuf.VoxelBuffer, mesh *meshtransvoxel.Mesh, lod, beginLOD uint8, baseTile, minTile, maxTile int) {
	res := TileResolution(baseTile, minTile, maxTile, lod, beginLOD)
	if r.Atlas.TileRes != res {
		r.Atlas = NewTileAtlas(res, r.Atlas.TilesWide, r.Atlas.Octahedral)
	}

	for _, cell := range mesh.Cells {
		key := CellKey{X: cell.X, Y: cell.Y, Z: cell.Z}
		r.Atlas.Allocate(key)
		r.bakeTile(buf, key, cell)
	}
}

func (r *Renderer) bakeTile(buf *voxelbuf.VoxelBuffer, key CellKey, cell meshtransvoxel.CellInfo) {
	res := r.Atlas.TileRes
	center := mgl32.Vec3{float32(cell.X) + 0.5, float32(cell.Y) + 0.5, float32(cell.Z) + 0.5}

	for ty := 0; ty < res; ty++ {
		for tx := 0; tx < res; tx++ {
			// Jitter the ray origin across the tile footprint around the
			// cell's solved surface point so neighboring texels sample
			// slightly different parts of the local surface.
			u := (float32(tx)+0.5)/float32(res) - 0.5
			v := (float32(ty)+0.5)/float32(res) - 0.5
			tangent, bitangent := orthonormalBasis(cell.Normal)
			origin := center.Add(tangent.Mul(u)).Add(bitangent.Mul(v)).Add(cell.Normal.Mul(1.5))

			hit, ok := sphereTrace(buf, origin, cell.Normal.Mul(-1))
			normal := cell.Normal
			if ok {
				normal = gradientAt(buf, hit)
			}
			r.Atlas.WriteTexel(key, tx, ty, normal)
		}
	}
}

// sphereTrace walks from origin along dir, sampling the trilinearly
// interpolated SDF, stepping by the returned distance each iteration
// (unit speed assumption: the buffer's SDF isn't a true distance field
// after quantization, so steps are clamped to avoid overshoot).
func sphereTrace(buf *voxelbuf.VoxelBuffer, origin, dir mgl32.Vec3) (mgl32.Vec3, bool) {
	pos := origin
	for i := 0; i < maxMarchSteps; i++ {
		d := trilinearSDF(buf, pos)
		if d < hitEpsilon {
			return pos, true
		}
		step := d
		if step > 1 {
			step = 1
		}
		if step < 0.05 {
			step = 0.05
		}
		pos = pos.Add(dir.Mul(float32(step)))
		if outOfBuffer(buf, pos) {
			return pos, false
		}
	}
	return pos, false
}

func outOfBuffer(buf *voxelbuf.VoxelBuffer, p mgl32.Vec3) bool {
	size := float32(buf.Size())
	return p.X() < 0 || p.Y() < 0 || p.Z() < 0 || p.X() >= size || p.Y() >= size || p.Z() >= size
}

// trilinearSDF reads the SDF channel at fractional buffer coordinates.
func trilinearSDF(buf *voxelbuf.VoxelBuffer, p mgl32.Vec3) float64 {
	x0, y0, z0 := int(p.X()), int(p.Y()), int(p.Z())
	fx, fy, fz := float64(p.X()-float32(x0)), float64(p.Y()-float32(y0)), float64(p.Z()-float32(z0))

	s := func(dx, dy, dz int) float64 {
		v, err := buf.GetF(voxelbuf.ChannelSDF, x0+dx, y0+dy, z0+dz)
		if err != nil {
			return 1
		}
		return v
	}

	c00 := lerp(s(0, 0, 0), s(1, 0, 0), fx)
	c10 := lerp(s(0, 1, 0), s(1, 1, 0), fx)
	c01 := lerp(s(0, 0, 1), s(1, 0, 1), fx)
	c11 := lerp(s(0, 1, 1), s(1, 1, 1), fx)
	c0 := lerp(c00, c10, fy)
	c1 := lerp(c01, c11, fy)
	return lerp(c0, c1, fz)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func gradientAt(buf *voxelbuf.VoxelBuffer, p mgl32.Vec3) mgl32.Vec3 {
	const h = 0.5
	dx := trilinearSDF(buf, p.Add(mgl32.Vec3{h, 0, 0})) - trilinearSDF(buf, p.Sub(mgl32.Vec3{h, 0, 0}))
	dy := trilinearSDF(buf, p.Add(mgl32.Vec3{0, h, 0})) - trilinearSDF(buf, p.Sub(mgl32.Vec3{0, h, 0}))
	dz := trilinearSDF(buf, p.Add(mgl32.Vec3{0, 0, h})) - trilinearSDF(buf, p.Sub(mgl32.Vec3{0, 0, h}))
	n := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
	if n.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func orthonormalBasis(n mgl32.Vec3) (tangent, bitangent mgl32.Vec3) {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(n.Dot(up)) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	tangent = n.Cross(up).Normalize()
	bitangent = n.Cross(tangent).Normalize()
	return
}
