package data

import (
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Generator produces deterministic voxel samples on demand. Implemented
// by pkg/generator; declared here (rather than imported) so pkg/data has
// no dependency on concrete generator implementations.
type Generator interface {
	// Generate fills buf (already sized by the caller) with samples for
	// the world-voxel region starting at origin, at the given LOD.
	Generate(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8)
}

// Modifiers composes the CSG-style modifier stack over generator output,
// implemented by pkg/modifier.
type Modifiers interface {
	Apply(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8)
}

// Stream persists edited blocks, implemented by pkg/region.
type Stream interface {
	LoadBlock(pos vxmath.Vec3i, lod uint8) (*voxelbuf.VoxelBuffer, bool, error)
	SaveBlock(pos vxmath.Vec3i, lod uint8, buf *voxelbuf.VoxelBuffer) error
}

// NopModifiers is the zero-value Modifiers: a no-op pass, used when a
// VoxelData has no modifier stack configured.
type NopModifiers struct{}

func (NopModifiers) Apply(*voxelbuf.VoxelBuffer, vxmath.Vec3i, uint8) {}
