package modifier

import (
	"math"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Sphere is a CSG sphere modifier, matching the sphere_add/sphere_sub
// edit primitives' shape.
type Sphere struct {
	Center    vxmath.Vec3i
	Radius    float64
	Op        Operation
	BlockType uint64
}

func (s Sphere) AABB() vxmath.Box3i {
	r := int32(math.Ceil(s.Radius)) + 1
	d := vxmath.Vec3i{X: r, Y: r, Z: r}
	return vxmath.Box3i{Min: s.Center.Sub(d), Max: s.Center.Add(d)}
}

func (s Sphere) ShaderParams() map[string]float32 {
	return map[string]float32{
		"center_x": float32(s.Center.X), "center_y": float32(s.Center.Y), "center_z": float32(s.Center.Z),
		"radius": float32(s.Radius), "op": float32(s.Op),
	}
}

func (s Sphere) Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := float64(int64(1) << lod)
	for x := 0; x < size; x++ {
		wx := float64(origin.X) + float64(x)*spacing
		for y := 0; y < size; y++ {
			wy := float64(origin.Y) + float64(y)*spacing
			for z := 0; z < size; z++ {
				wz := float64(origin.Z) + float64(z)*spacing
				dx := wx - float64(s.Center.X)
				dy := wy - float64(s.Center.Y)
				dz := wz - float64(s.Center.Z)
				dist := math.Sqrt(dx*dx+dy*dy+dz*dz) - s.Radius
				combineSDF(buf, x, y, z, dist, s.Op)
				if dist < 0 {
					applySolidChannels(buf, x, y, z, s.Op, s.BlockType)
				}
			}
		}
	}
}

// Box is a CSG axis-aligned box modifier.
type Box struct {
	Region    vxmath.Box3i
	Op        Operation
	BlockType uint64
}

func (b Box) AABB() vxmath.Box3i { return b.Region }

func (b Box) ShaderParams() map[string]float32 {
	return map[string]float32{
		"min_x": float32(b.Region.Min.X), "min_y": float32(b.Region.Min.Y), "min_z": float32(b.Region.Min.Z),
		"max_x": float32(b.Region.Max.X), "max_y": float32(b.Region.Max.Y), "max_z": float32(b.Region.Max.Z),
		"op": float32(b.Op),
	}
}

func (b Box) Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := int32(1) << lod
	for x := 0; x < size; x++ {
		wx := origin.X + int32(x)*spacing
		for y := 0; y < size; y++ {
			wy := origin.Y + int32(y)*spacing
			for z := 0; z < size; z++ {
				wz := origin.Z + int32(z)*spacing
				inside := wx >= b.Region.Min.X && wx < b.Region.Max.X &&
					wy >= b.Region.Min.Y && wy < b.Region.Max.Y &&
					wz >= b.Region.Min.Z && wz < b.Region.Max.Z
				dist := 1.0
				if inside {
					dist = -1.0
				}
				combineSDF(buf, x, y, z, dist, b.Op)
				if inside {
					applySolidChannels(buf, x, y, z, b.Op, b.BlockType)
				}
			}
		}
	}
}

func combineSDF(buf *voxelbuf.VoxelBuffer, x, y, z int, newDist float64, op Operation) {
	existing, _ := buf.GetF(voxelbuf.ChannelSDF, x, y, z)
	var result float64
	switch op {
	case OpAdd:
		result = math.Min(existing, newDist)
	case OpSubtract:
		result = math.Max(existing, -newDist)
	case OpSet:
		result = newDist
	}
	_ = buf.SetF(voxelbuf.ChannelSDF, x, y, z, result)
}

func applySolidChannels(buf *voxelbuf.VoxelBuffer, x, y, z int, op Operation, blockType uint64) {
	switch op {
	case OpAdd, OpSet:
		_ = buf.Set(voxelbuf.ChannelType, x, y, z, blockType)
	case OpSubtract:
		_ = buf.Set(voxelbuf.ChannelType, x, y, z, 0)
	}
}
