package modifier

import (
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// MeshSDF is a modifier backed by an arbitrary precomputed
// signed-distance sampler (e.g. baked from an authored mesh), rather
// than an analytic shape. SampleFn receives world-voxel coordinates and
// returns the signed distance at that point.
type MeshSDF struct {
	Bounds    vxmath.Box3i
	SampleFn  func(worldX, worldY, worldZ float64) float64
	Op        Operation
	BlockType uint64
}

func (m MeshSDF) AABB() vxmath.Box3i { return m.Bounds }

func (m MeshSDF) ShaderParams() map[string]float32 {
	// A real GPU dispatch would bind a distance-field texture or SSBO;
	// the CPU-only sampler closure has no scalar representation, so we
	// only forward the operation selector.
	return map[string]float32{"op": float32(m.Op)}
}

func (m MeshSDF) Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := float64(int64(1) << lod)
	for x := 0; x < size; x++ {
		wx := float64(origin.X) + float64(x)*spacing
		for y := 0; y < size; y++ {
			wy := float64(origin.Y) + float64(y)*spacing
			for z := 0; z < size; z++ {
				wz := float64(origin.Z) + float64(z)*spacing
				dist := m.SampleFn(wx, wy, wz)
				combineSDF(buf, x, y, z, dist, m.Op)
				if dist < 0 {
					applySolidChannels(buf, x, y, z, m.Op, m.BlockType)
				}
			}
		}
	}
}
