// Package modifier implements the ModifierStack: an ordered list of
// CSG-style spatial operators composed over generator output, as plain
// structs rather than an interface{}-soup visitor.
package modifier

import (
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Operation is how a modifier combines with the SDF/TYPE values beneath it.
type Operation int

const (
	OpAdd Operation = iota
	OpSubtract
	OpSet
)

// Modifier is one spatial operator in the stack: {sphere, box, mesh-SDF,
// …}, carrying an AABB and shader params so the same composition can be
// dispatched as a compute pipeline when generation is GPU-offloaded.
type Modifier interface {
	AABB() vxmath.Box3i
	Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8)
	// ShaderParams returns the uniform values a GPU compute-shader
	// variant of this modifier would bind, keyed by parameter name.
	ShaderParams() map[string]float32
}

// Stack is an ordered list of modifiers evaluated over a buffer's
// voxels by Apply.
type Stack struct {
	modifiers []Modifier
}

func NewStack() *Stack { return &Stack{} }

func (s *Stack) Push(m Modifier) { s.modifiers = append(s.modifiers, m) }

func (s *Stack) Len() int { return len(s.modifiers) }

// Apply evaluates every modifier in order over buf, whose voxels span
// the world region [origin, origin+buf.Size()*2^lod).
func (s *Stack) Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := int32(buf.Size())
	bufBox := vxmath.Box3i{Min: origin, Max: origin.Add(vxmath.Vec3i{X: size, Y: size, Z: size}.Shl(lod))}
	for _, m := range s.modifiers {
		if !m.AABB().Intersects(bufBox) {
			continue
		}
		m.Apply(buf, origin, lod)
	}
}

// GPUShaderPipeline returns, for each modifier overlapping box, the
// shader params a compute-shader dispatch would need, preserving stack
// order. Used when block generation is GPU-offloaded.
func (s *Stack) GPUShaderPipeline(box vxmath.Box3i) []map[string]float32 {
	var out []map[string]float32
	for _, m := range s.modifiers {
		if m.AABB().Intersects(box) {
			out = append(out, m.ShaderParams())
		}
	}
	return out
}
