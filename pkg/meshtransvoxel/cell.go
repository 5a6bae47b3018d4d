package meshtransvoxel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// CellInfo describes one sign-changing cell: its classification mask,
// the vertex position solved for it, and the material/index/weight
// samples carried along for the renderer (paint splatting needs a
// material id per vertex, not just a position).
type CellInfo struct {
	X, Y, Z  int
	CaseMask uint8
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Indices  [4]uint8 // up to 4 blended materials, from the INDICES channel
	Weights  [4]uint8 // matching blend weights, from the WEIGHTS channel
}

// classifyCell returns the 8-bit corner mask for the cell whose
// minimum corner is (x,y,z): bit i set means corner i's SDF sample is
// negative (inside the volume).
func classifyCell(buf *voxelbuf.VoxelBuffer, x, y, z int) uint8 {
	var mask uint8
	for i, off := range cornerOffsets {
		if sampleSDF(buf, x+off[0], y+off[1], z+off[2]) < 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// solveCellVertex averages every edge crossing of the cell into a
// single vertex position, linearly interpolated by each edge's SDF
// zero-crossing fraction. Returns ok=false for a uniform cell (no
// crossings, nothing to mesh).
func solveCellVertex(buf *voxelbuf.VoxelBuffer, x, y, z int, mask uint8) (pos mgl32.Vec3, ok bool) {
	if mask == 0 || mask == 0xFF {
		return mgl32.Vec3{}, false
	}

	var sum mgl32.Vec3
	count := 0
	for _, e := range cellEdges {
		a, b := cornerOffsets[e[0]], cornerOffsets[e[1]]
		sa := sampleSDF(buf, x+a[0], y+a[1], z+a[2])
		sb := sampleSDF(buf, x+b[0], y+b[1], z+b[2])
		signA := sa < 0
		signB := sb < 0
		if signA == signB {
			continue
		}
		t := sa / (sa - sb)
		p := mgl32.Vec3{
			float32(a[0]) + float32(t)*float32(b[0]-a[0]),
			float32(a[1]) + float32(t)*float32(b[1]-a[1]),
			float32(a[2]) + float32(t)*float32(b[2]-a[2]),
		}
		sum = sum.Add(p)
		count++
	}
	if count == 0 {
		return mgl32.Vec3{}, false
	}
	avg := sum.Mul(1 / float32(count))
	return mgl32.Vec3{float32(x), float32(y), float32(z)}.Add(avg), true
}

// gradientNormal estimates the surface normal at a cell by central
// differencing the SDF field, matching the GRADIENT_X/Y/Z channels'
// purpose when precomputed gradients aren't available.
func gradientNormal(buf *voxelbuf.VoxelBuffer, x, y, z int) mgl32.Vec3 {
	gx := sampleSDF(buf, x+1, y, z) - sampleSDF(buf, x-1, y, z)
	gy := sampleSDF(buf, x, y+1, z) - sampleSDF(buf, x, y-1, z)
	gz := sampleSDF(buf, x, y, z+1) - sampleSDF(buf, x, y, z-1)
	n := mgl32.Vec3{float32(gx), float32(gy), float32(gz)}
	if n.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func sampleBlend(buf *voxelbuf.VoxelBuffer, x, y, z int) (indices, weights [4]uint8) {
	size := buf.Size()
	if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
		return
	}
	idx, _ := buf.Get(voxelbuf.ChannelIndices, x, y, z)
	w, _ := buf.Get(voxelbuf.ChannelWeights, x, y, z)
	for i := 0; i < 4; i++ {
		indices[i] = uint8(idx >> (8 * uint(i)))
		weights[i] = uint8(w >> (8 * uint(i)))
	}
	return
}
