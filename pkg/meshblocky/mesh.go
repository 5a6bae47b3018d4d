// Package meshblocky builds cube-faced ("blocky") meshes from a
// VoxelBuffer's TYPE channel using greedy face merging, the same
// algorithm a classic chunk renderer runs per direction and per slice,
// generalized to work on typed voxel buffers instead of a flat
// []BlockType array and to emit one surface per material instead of one
// packed vertex stream.
package meshblocky

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// Direction indexes the 6 axis-aligned face normals.
type Direction int

const (
	North Direction = iota // -Z
	South                  // +Z
	East                   // +X
	West                   // -X
	Up                     // +Y
	Down                   // -Y
)

func (d Direction) Vector() mgl32.Vec3 {
	switch d {
	case North:
		return mgl32.Vec3{0, 0, -1}
	case South:
		return mgl32.Vec3{0, 0, 1}
	case East:
		return mgl32.Vec3{1, 0, 0}
	case West:
		return mgl32.Vec3{-1, 0, 0}
	case Up:
		return mgl32.Vec3{0, 1, 0}
	case Down:
		return mgl32.Vec3{0, -1, 0}
	default:
		return mgl32.Vec3{}
	}
}

// Vertex is one corner of an emitted quad.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	AO       float32 // 0 (fully occluded) .. 1 (unoccluded)
}

// Surface groups every quad sharing one material (TYPE value) into a
// single indexed vertex/index buffer, ready for one draw call.
type Surface struct {
	Material uint64
	Vertices []Vertex
	Indices  []uint32
}

func (s *Surface) addQuad(v [4]Vertex) {
	base := uint32(len(s.Vertices))
	s.Vertices = append(s.Vertices, v[:]...)
	s.Indices = append(s.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Mesh is the full output of meshing one block: one opaque surface per
// material, plus any fluid surfaces.
type Mesh struct {
	Surfaces      []*Surface
	FluidSurfaces []*Surface
}

func (m *Mesh) surfaceFor(material uint64) *Surface {
	for _, s := range m.Surfaces {
		if s.Material == material {
			return s
		}
	}
	s := &Surface{Material: material}
	m.Surfaces = append(m.Surfaces, s)
	return s
}

// Mesher builds blocky meshes. Every non-zero TYPE value below FluidBase
// is meshed as a solid cube, whether or not Library holds a model for
// it (Mesh does not consult Library); values at/above FluidBase are
// fluid columns handled by meshFluids instead.
type Mesher struct {
	Library   ModelLibrary
	FluidBase uint64
}

func NewMesher(lib ModelLibrary) *Mesher {
	return &Mesher{Library: lib, FluidBase: defaultFluidBase}
}

// Mesh runs greedy meshing over buf's TYPE channel at world origin
// (used only to offset emitted vertex positions; buf itself is
// block-local) and voxel spacing 2^lod.
func (m *Mesher) Mesh(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) *Mesh {
	mesh := &Mesh{}
	size := buf.Size()
	spacing := float32(int64(1) << lod)

	solid := func(x, y, z int) (uint64, bool) {
		if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
			return 0, false
		}
		v, _ := buf.Get(voxelbuf.ChannelType, x, y, z)
		if v == 0 || v >= m.FluidBase {
			return 0, false
		}
		return v, true
	}

	visited := make([]bool, size*size*size)
	idx := func(x, y, z int) int { return (x*size+y)*size + z }

	for dim := 0; dim < 6; dim++ {
		dir := Direction(dim)
		for i := range visited {
			visited[i] = false
		}

		var u, v, w int
		var su, sv, sw int
		switch dir {
		case North, South:
			u, v, w = 0, 1, 2
			su, sv, sw = size, size, size
		case East, West:
			u, v, w = 2, 1, 0
			su, sv, sw = size, size, size
		case Up, Down:
			u, v, w = 0, 2, 1
			su, sv, sw = size, size, size
		}

		wStart, wEnd, wStep := 0, sw, 1
		if dir == South || dir == East || dir == Up {
			wStart, wEnd, wStep = sw-1, -1, -1
		}

		coordsFor := func(u0, v0, w0 int) (int, int, int) {
			switch dir {
			case North, South:
				return u0, v0, w0
			case East, West:
				return w0, v0, u0
			default: // Up, Down
				return u0, w0, v0
			}
		}

		neighborOffset := func() (dx, dy, dz int) {
			switch dir {
			case North:
				return 0, 0, -1
			case South:
				return 0, 0, 1
			case East:
				return 1, 0, 0
			case West:
				return -1, 0, 0
			case Up:
				return 0, 1, 0
			default: // Down
				return 0, -1, 0
			}
		}
		dx, dy, dz := neighborOffset()

		for w0 := wStart; w0 != wEnd; w0 += wStep {
			mask := make([]uint64, su*sv)
			maskAt := func(u0, v0 int) uint64 { return mask[u0*sv+v0] }
			setMask := func(u0, v0 int, mat uint64) { mask[u0*sv+v0] = mat }

			for v0 := 0; v0 < sv; v0++ {
				for u0 := 0; u0 < su; u0++ {
					x, y, z := coordsFor(u0, v0, w0)
					mat, ok := solid(x, y, z)
					if !ok {
						continue
					}
					if _, nOk := solid(x+dx, y+dy, z+dz); nOk {
						continue
					}
					setMask(u0, v0, mat)
				}
			}

			for v0 := 0; v0 < sv; v0++ {
				for u0 := 0; u0 < su; u0++ {
					mat := maskAt(u0, v0)
					if mat == 0 {
						continue
					}
					x, y, z := coordsFor(u0, v0, w0)
					if visited[idx(x, y, z)] {
						continue
					}

					width := 1
					for u1 := u0 + width; u1 < su; u1++ {
						nx, ny, nz := coordsFor(u1, v0, w0)
						if maskAt(u1, v0) != mat || visited[idx(nx, ny, nz)] {
							break
						}
						width++
					}

					height := 1
					for v1 := v0 + height; v1 < sv; v1++ {
						extend := true
						for u1 := u0; u1 < u0+width; u1++ {
							nx, ny, nz := coordsFor(u1, v1, w0)
							if maskAt(u1, v1) != mat || visited[idx(nx, ny, nz)] {
								extend = false
								break
							}
						}
						if !extend {
							break
						}
						height++
					}

					for v1 := v0; v1 < v0+height; v1++ {
						for u1 := u0; u1 < u0+width; u1++ {
							vx, vy, vz := coordsFor(u1, v1, w0)
							visited[idx(vx, vy, vz)] = true
						}
					}

					quad := m.buildQuad(dir, u0, v0, w0, width, height, spacing, origin, buf, size)
					mesh.surfaceFor(mat).addQuad(quad)
				}
			}
		}
	}

	mesh.FluidSurfaces = m.meshFluids(buf, origin, lod)
	return mesh
}

func (m *Mesher) buildQuad(dir Direction, u0, v0, w0, width, height int, spacing float32, origin vxmath.Vec3i, buf *voxelbuf.VoxelBuffer, size int) [4]Vertex {
	var p [4]mgl32.Vec3
	switch dir {
	case North:
		p = [4]mgl32.Vec3{
			{float32(u0), float32(v0), float32(w0)},
			{float32(u0 + width), float32(v0), float32(w0)},
			{float32(u0 + width), float32(v0 + height), float32(w0)},
			{float32(u0), float32(v0 + height), float32(w0)},
		}
	case South:
		p = [4]mgl32.Vec3{
			{float32(u0 + width), float32(v0), float32(w0 + 1)},
			{float32(u0), float32(v0), float32(w0 + 1)},
			{float32(u0), float32(v0 + height), float32(w0 + 1)},
			{float32(u0 + width), float32(v0 + height), float32(w0 + 1)},
		}
	case East:
		p = [4]mgl32.Vec3{
			{float32(w0 + 1), float32(v0), float32(u0 + width)},
			{float32(w0 + 1), float32(v0), float32(u0)},
			{float32(w0 + 1), float32(v0 + height), float32(u0)},
			{float32(w0 + 1), float32(v0 + height), float32(u0 + width)},
		}
	case West:
		p = [4]mgl32.Vec3{
			{float32(w0), float32(v0), float32(u0)},
			{float32(w0), float32(v0), float32(u0 + width)},
			{float32(w0), float32(v0 + height), float32(u0 + width)},
			{float32(w0), float32(v0 + height), float32(u0)},
		}
	case Up:
		p = [4]mgl32.Vec3{
			{float32(u0), float32(w0 + 1), float32(v0 + height)},
			{float32(u0 + width), float32(w0 + 1), float32(v0 + height)},
			{float32(u0 + width), float32(w0 + 1), float32(v0)},
			{float32(u0), float32(w0 + 1), float32(v0)},
		}
	case Down:
		p = [4]mgl32.Vec3{
			{float32(u0), float32(w0), float32(v0)},
			{float32(u0 + width), float32(w0), float32(v0)},
			{float32(u0 + width), float32(w0), float32(v0 + height)},
			{float32(u0), float32(w0), float32(v0 + height)},
		}
	}

	normal := dir.Vector()
	uvs := [4]mgl32.Vec2{{0, 0}, {float32(width), 0}, {float32(width), float32(height)}, {0, float32(height)}}
	chunkOrigin := mgl32.Vec3{float32(origin.X), float32(origin.Y), float32(origin.Z)}

	var out [4]Vertex
	for i := 0; i < 4; i++ {
		world := p[i].Mul(spacing).Add(chunkOrigin)
		out[i] = Vertex{
			Position: world,
			Normal:   normal,
			UV:       uvs[i],
			AO:       cornerAO(buf, size, dir, int(p[i].X()), int(p[i].Y()), int(p[i].Z())),
		}
	}
	return out
}
