package meshblocky

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// fluidLevel reads a column's fluid fill fraction (0..1) from WEIGHTS,
// or 0 if the voxel isn't a fluid (TYPE below FluidBase).
func (m *Mesher) fluidLevel(buf *voxelbuf.VoxelBuffer, size, x, y, z int) (material uint64, level float32, ok bool) {
	if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
		return 0, 0, false
	}
	t, _ := buf.Get(voxelbuf.ChannelType, x, y, z)
	if t < m.FluidBase {
		return 0, 0, false
	}
	w, _ := buf.GetF(voxelbuf.ChannelWeights, x, y, z)
	return t, float32(w), true
}

// cornerHeight averages the fill levels of the (up to 4) fluid columns
// sharing a given XZ grid corner at height y, approximating the sloped
// surface real fluids settle into instead of a flat per-voxel top.
func (m *Mesher) cornerHeight(buf *voxelbuf.VoxelBuffer, size, x, y, z int, material uint64) float32 {
	sum, n := float32(0), 0
	for _, d := range [4][2]int{{-1, -1}, {-1, 0}, {0, -1}, {0, 0}} {
		mat, level, ok := m.fluidLevel(buf, size, x+d[0], y, z+d[1])
		if !ok || mat != material {
			continue
		}
		sum += level
		n++
	}
	if n == 0 {
		return 1
	}
	return sum / float32(n)
}

// above y+1 being non-fluid and non-solid means the fluid's top is
// exposed and needs a surface.
func (m *Mesher) fluidTopExposed(buf *voxelbuf.VoxelBuffer, size, x, y, z int) bool {
	if y+1 >= size {
		return true
	}
	t, _ := buf.Get(voxelbuf.ChannelType, x, y+1, z)
	return t == 0
}

// meshFluids emits one upward-facing, per-corner-height quad for every
// exposed fluid column, grouped into per-material surfaces. Only top
// quads are emitted: fluid columns get no side walls, and the quad's
// triangulation does not follow any flow direction.
func (m *Mesher) meshFluids(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) []*Surface {
	size := buf.Size()
	spacing := float32(int64(1) << lod)
	chunkOrigin := mgl32.Vec3{float32(origin.X), float32(origin.Y), float32(origin.Z)}

	var surfaces []*Surface
	surfaceFor := func(material uint64) *Surface {
		for _, s := range surfaces {
			if s.Material == material {
				return s
			}
		}
		s := &Surface{Material: material}
		surfaces = append(surfaces, s)
		return s
	}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				material, _, ok := m.fluidLevel(buf, size, x, y, z)
				if !ok || !m.fluidTopExposed(buf, size, x, y, z) {
					continue
				}

				h00 := m.cornerHeight(buf, size, x, y, z, material)
				h10 := m.cornerHeight(buf, size, x+1, y, z, material)
				h11 := m.cornerHeight(buf, size, x+1, y, z+1, material)
				h01 := m.cornerHeight(buf, size, x, y, z+1, material)

				top := float32(y) + 1
				p := [4]mgl32.Vec3{
					{float32(x), top - (1 - h00), float32(z)},
					{float32(x + 1), top - (1 - h10), float32(z)},
					{float32(x + 1), top - (1 - h11), float32(z + 1)},
					{float32(x), top - (1 - h01), float32(z + 1)},
				}
				uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

				var quad [4]Vertex
				for i := range quad {
					quad[i] = Vertex{
						Position: p[i].Mul(spacing).Add(chunkOrigin),
						Normal:   mgl32.Vec3{0, 1, 0},
						UV:       uvs[i],
						AO:       1,
					}
				}
				surfaceFor(material).addQuad(quad)
			}
		}
	}
	return surfaces
}
