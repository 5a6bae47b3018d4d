package meshtransvoxel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/vxmath"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// Vertex is one emitted smooth-surface vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Indices  [4]uint8
	Weights  [4]uint8
}

// Mesh is the output of meshing one block: a single indexed vertex
// buffer (smooth surfaces don't split by material the way blocky faces
// do; blending is carried per-vertex via Indices/Weights instead) plus
// the per-cell classification used to drive transition-seam stitching
// against a coarser LOD neighbor.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Cells    []CellInfo
}

// Mesher builds smooth meshes from SDF data.
type Mesher struct{}

// Mesh runs surface-nets extraction over buf at world origin and voxel
// spacing 2^lod. origin only offsets emitted vertex positions.
func (Mesher) Mesh(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) *Mesh {
	size := buf.Size()
	nc := size - 1 // cells per axis
	if nc <= 0 {
		return &Mesh{}
	}
	spacing := float32(int64(1) << lod)
	chunkOrigin := mgl32.Vec3{float32(origin.X), float32(origin.Y), float32(origin.Z)}

	vertIndex := make([]int32, nc*nc*nc)
	for i := range vertIndex {
		vertIndex[i] = -1
	}
	idx := func(x, y, z int) int { return (x*nc+y)*nc + z }

	mesh := &Mesh{}
	vertexAt := func(x, y, z int) (int32, bool) {
		if x < 0 || y < 0 || z < 0 || x >= nc || y >= nc || z >= nc {
			return 0, false
		}
		i := idx(x, y, z)
		if vertIndex[i] >= 0 {
			return vertIndex[i], true
		}
		mask := classifyCell(buf, x, y, z)
		localPos, ok := solveCellVertex(buf, x, y, z, mask)
		if !ok {
			vertIndex[i] = -2 // cached miss
			return 0, false
		}
		normal := gradientNormal(buf, x, y, z)
		indices, weights := sampleBlend(buf, x, y, z)

		mesh.Cells = append(mesh.Cells, CellInfo{
			X: x, Y: y, Z: z, CaseMask: mask,
			Position: localPos, Normal: normal,
			Indices: indices, Weights: weights,
		})
		mesh.Vertices = append(mesh.Vertices, Vertex{
			Position: localPos.Mul(spacing).Add(chunkOrigin),
			Normal:   normal,
			Indices:  indices,
			Weights:  weights,
		})
		id := int32(len(mesh.Vertices) - 1)
		vertIndex[i] = id
		return id, true
	}

	// An active edge along axis a at grid point p connects the 4 cells
	// sharing that edge into one quad, oriented by the sign of the
	// lower endpoint so winding stays outward-facing.
	emitQuad := func(cells [4][3]int, flip bool) {
		var ids [4]int32
		for i, c := range cells {
			id, ok := vertexAt(c[0], c[1], c[2])
			if !ok {
				return
			}
			ids[i] = id
		}
		if flip {
			mesh.Indices = append(mesh.Indices, uint32(ids[0]), uint32(ids[2]), uint32(ids[1]), uint32(ids[0]), uint32(ids[3]), uint32(ids[2]))
		} else {
			mesh.Indices = append(mesh.Indices, uint32(ids[0]), uint32(ids[1]), uint32(ids[2]), uint32(ids[0]), uint32(ids[2]), uint32(ids[3]))
		}
	}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				s0 := sampleSDF(buf, x, y, z)

				if x+1 < size {
					s1 := sampleSDF(buf, x+1, y, z)
					if (s0 < 0) != (s1 < 0) {
						emitQuad([4][3]int{{x, y - 1, z - 1}, {x, y, z - 1}, {x, y, z}, {x, y - 1, z}}, s0 >= 0)
					}
				}
				if y+1 < size {
					s1 := sampleSDF(buf, x, y+1, z)
					if (s0 < 0) != (s1 < 0) {
						emitQuad([4][3]int{{x - 1, y, z - 1}, {x, y, z - 1}, {x, y, z}, {x - 1, y, z}}, s0 < 0)
					}
				}
				if z+1 < size {
					s1 := sampleSDF(buf, x, y, z+1)
					if (s0 < 0) != (s1 < 0) {
						emitQuad([4][3]int{{x - 1, y - 1, z}, {x, y - 1, z}, {x, y, z}, {x - 1, y, z}}, s0 >= 0)
					}
				}
			}
		}
	}

	return mesh
}
