// Package vxmath holds the small integer-vector and box types shared by
// every voxel subsystem, mixing int32 block coordinates with mgl32.Vec3
// world positions, so pkg/voxelbuf, pkg/data, pkg/meshblocky and
// pkg/meshtransvoxel don't each invent their own Vec3i/Box3i.
package vxmath

import "github.com/go-gl/mathgl/mgl32"

// Vec3i is an integer voxel/block coordinate.
type Vec3i struct {
	X, Y, Z int32
}

func NewVec3i(x, y, z int32) Vec3i { return Vec3i{x, y, z} }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Mul scales each component by s.
func (v Vec3i) Mul(s int32) Vec3i { return Vec3i{v.X * s, v.Y * s, v.Z * s} }

// Shr is voxel-spacing conversion between LODs: shifting right by the LOD
// index divides world position by 2^LOD.
func (v Vec3i) Shr(lod uint8) Vec3i {
	return Vec3i{v.X >> lod, v.Y >> lod, v.Z >> lod}
}

func (v Vec3i) Shl(lod uint8) Vec3i {
	return Vec3i{v.X << lod, v.Y << lod, v.Z << lod}
}

// DistanceSquared to another position, used by the scheduler's priority
// function and the LOD controller's split/merge distance checks.
func (v Vec3i) DistanceSquared(o Vec3i) int64 {
	dx := int64(v.X - o.X)
	dy := int64(v.Y - o.Y)
	dz := int64(v.Z - o.Z)
	return dx*dx + dy*dy + dz*dz
}

func (v Vec3i) ToVec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Box3i is an axis-aligned integer box, half-open on the Max corner
// (Min inclusive, Max exclusive).
type Box3i struct {
	Min, Max Vec3i
}

func NewBox3i(min Vec3i, size Vec3i) Box3i {
	return Box3i{Min: min, Max: min.Add(size)}
}

func (b Box3i) Size() Vec3i { return b.Max.Sub(b.Min) }

func (b Box3i) Contains(p Vec3i) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

func (b Box3i) Intersects(o Box3i) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// Clipped returns the intersection of b and o; ok is false if they don't
// overlap. Used by VoxelBuffer.copy_from's bounds-checked, silently
// clipping contract.
func (b Box3i) Clipped(o Box3i) (Box3i, bool) {
	min := Vec3i{max32(b.Min.X, o.Min.X), max32(b.Min.Y, o.Min.Y), max32(b.Min.Z, o.Min.Z)}
	mx := Vec3i{min32(b.Max.X, o.Max.X), min32(b.Max.Y, o.Max.Y), min32(b.Max.Z, o.Max.Z)}
	if mx.X <= min.X || mx.Y <= min.Y || mx.Z <= min.Z {
		return Box3i{}, false
	}
	return Box3i{Min: min, Max: mx}, true
}

// Padded grows the box by n voxels on every side, used when gathering
// neighborhoods for meshing.
func (b Box3i) Padded(n int32) Box3i {
	d := Vec3i{n, n, n}
	return Box3i{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
