package edit

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// RaycastResult mirrors VoxelRaycastResult: the hit cell, the cell the
// ray was in just before the hit, the distance traveled and the
// surface normal at the hit.
type RaycastResult struct {
	Position         vxmath.Vec3i
	PreviousPosition vxmath.Vec3i
	DistanceAlongRay float64
	Normal           mgl32.Vec3
}

func floorF(v float32) int32 { return int32(math.Floor(float64(v))) }

// RaycastBlocky steps the ray one voxel cell at a time using the
// Amanatides-Woo grid traversal, stopping at the first cell whose type
// channel is non-air, matching raycast_blocky's test behavior in
// test_raycast.cpp (full-voxel collision; it does not account for
// partial-height models like slabs, since this port carries no per-type
// collision-box metadata).
func RaycastBlocky(vd *data.VoxelData, origin, dir mgl32.Vec3, maxDistance float64) (*RaycastResult, bool) {
	if dir.Len() == 0 {
		return nil, false
	}
	dir = dir.Normalize()

	cell := vxmath.Vec3i{X: floorF(origin[0]), Y: floorF(origin[1]), Z: floorF(origin[2])}
	prev := cell

	step := [3]int32{}
	tMax := [3]float64{}
	tDelta := [3]float64{}

	for axis := 0; axis < 3; axis++ {
		d := float64(dir[axis])
		switch {
		case d > 0:
			step[axis] = 1
			boundary := float64(cellCoord(cell, axis) + 1)
			tMax[axis] = (boundary - float64(origin[axis])) / d
			tDelta[axis] = 1.0 / d
		case d < 0:
			step[axis] = -1
			boundary := float64(cellCoord(cell, axis))
			tMax[axis] = (boundary - float64(origin[axis])) / d
			tDelta[axis] = -1.0 / d
		default:
			step[axis] = 0
			tMax[axis] = math32Inf
			tDelta[axis] = math32Inf
		}
	}

	tool := &Tool{Volume: vd, Channel: voxelbuf.ChannelType}
	t := 0.0
	crossedAxis := -1 // axis of the step that produced the current cell; -1 at the origin cell
	for t <= maxDistance {
		v, err := tool.GetVoxel(cell)
		if err == nil && v != 0 {
			normal := vxmath.Vec3i{}
			axis := crossedAxis
			if axis < 0 {
				axis = 0
			}
			setAxis(&normal, axis, -step[axis])
			return &RaycastResult{
				Position:         cell,
				PreviousPosition: prev,
				DistanceAlongRay: t,
				Normal:           normal.ToVec3(),
			}, true
		}
		prev = cell

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		crossedAxis = axis
		t = tMax[axis]
		setAxis(&cell, axis, cellCoord(cell, axis)+step[axis])
		tMax[axis] += tDelta[axis]
	}
	return nil, false
}

const math32Inf = 1e18

func cellCoord(v vxmath.Vec3i, axis int) int32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *vxmath.Vec3i, axis int, value int32) {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
}

const (
	maxSphereTraceSteps = 64
	sdfHitEpsilon       = 0.01
)

// RaycastSDF sphere-traces the isolevel channel from origin along dir,
// matching raycast_sdf's test behavior: each step advances by the
// trilinearly-sampled distance at the current point (clamped to a
// minimum so flat regions of the SDF still converge), stopping once the
// sampled distance drops below sdfHitEpsilon. The hit normal comes from
// the central-difference gradient, exactly like
// pkg/detailtexture/bake.go's gradientAt but sampling across block
// boundaries via Tool.GetVoxelF instead of one VoxelBuffer.
func RaycastSDF(vd *data.VoxelData, origin, dir mgl32.Vec3, maxDistance float64) (*RaycastResult, bool) {
	if dir.Len() == 0 {
		return nil, false
	}
	dir = dir.Normalize()
	tool := &Tool{Volume: vd, Channel: voxelbuf.ChannelSDF}

	t := 0.0
	for i := 0; i < maxSphereTraceSteps && t < maxDistance; i++ {
		p := origin.Add(dir.Mul(float32(t)))
		d := trilinearSDFWorld(tool, p)
		if d < sdfHitEpsilon {
			hitCell := vxmath.Vec3i{X: floorF(p[0]), Y: floorF(p[1]), Z: floorF(p[2])}
			prevP := origin.Add(dir.Mul(float32(t - 1)))
			return &RaycastResult{
				Position:         hitCell,
				PreviousPosition: vxmath.Vec3i{X: floorF(prevP[0]), Y: floorF(prevP[1]), Z: floorF(prevP[2])},
				DistanceAlongRay: t,
				Normal:           gradientAtWorld(tool, p),
			}, true
		}
		advance := d
		if advance < 0.05 {
			advance = 0.05
		}
		t += advance
	}
	return nil, false
}

// trilinearSDFWorld samples the 8 voxel corners around p and blends
// them, the same scheme as detailtexture.trilinearSDF but reading
// across VoxelData block boundaries via Tool.GetVoxelF rather than one
// VoxelBuffer's local indices.
func trilinearSDFWorld(tool *Tool, p mgl32.Vec3) float64 {
	x0, y0, z0 := floorF(p[0]), floorF(p[1]), floorF(p[2])
	fx, fy, fz := float64(p[0])-float64(x0), float64(p[1])-float64(y0), float64(p[2])-float64(z0)

	get := func(dx, dy, dz int32) float64 {
		v, _ := tool.GetVoxelF(vxmath.Vec3i{X: x0 + dx, Y: y0 + dy, Z: z0 + dz})
		return v
	}

	c000, c100 := get(0, 0, 0), get(1, 0, 0)
	c010, c110 := get(0, 1, 0), get(1, 1, 0)
	c001, c101 := get(0, 0, 1), get(1, 0, 1)
	c011, c111 := get(0, 1, 1), get(1, 1, 1)

	x00 := lerpF(c000, c100, fx)
	x10 := lerpF(c010, c110, fx)
	x01 := lerpF(c001, c101, fx)
	x11 := lerpF(c011, c111, fx)
	y0v := lerpF(x00, x10, fy)
	y1v := lerpF(x01, x11, fy)
	return lerpF(y0v, y1v, fz)
}

func lerpF(a, b, t float64) float64 { return a + (b-a)*t }

// gradientAtWorld is the central-difference normal estimator, reused
// unchanged in spirit from detailtexture.gradientAt.
func gradientAtWorld(tool *Tool, p mgl32.Vec3) mgl32.Vec3 {
	const h = 0.5
	dx := trilinearSDFWorld(tool, p.Add(mgl32.Vec3{h, 0, 0})) - trilinearSDFWorld(tool, p.Sub(mgl32.Vec3{h, 0, 0}))
	dy := trilinearSDFWorld(tool, p.Add(mgl32.Vec3{0, h, 0})) - trilinearSDFWorld(tool, p.Sub(mgl32.Vec3{0, h, 0}))
	dz := trilinearSDFWorld(tool, p.Add(mgl32.Vec3{0, 0, h})) - trilinearSDFWorld(tool, p.Sub(mgl32.Vec3{0, 0, h}))
	n := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
	if n.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}
