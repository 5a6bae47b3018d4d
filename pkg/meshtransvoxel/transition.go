package meshtransvoxel

import "github.com/go-gl/mathgl/mgl32"

// Face identifies one of the 6 block faces a neighbor at a different
// LOD might share.
type Face int

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// axisMagnitude returns the component index and sign a face varies
// along.
func (f Face) axisMagnitude() (axis int, positive bool) {
	switch f {
	case FaceNegX:
		return 0, false
	case FacePosX:
		return 0, true
	case FaceNegY:
		return 1, false
	case FacePosY:
		return 1, true
	case FaceNegZ:
		return 2, false
	default:
		return 2, true
	}
}

func component(v mgl32.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}

func withComponent(v mgl32.Vec3, axis int, value float32) mgl32.Vec3 {
	switch axis {
	case 0:
		return mgl32.Vec3{value, v.Y(), v.Z()}
	case 1:
		return mgl32.Vec3{v.X(), value, v.Z()}
	default:
		return mgl32.Vec3{v.X(), v.Y(), value}
	}
}

// WeldSeam snaps every vertex on the given face's border onto the
// coarser grid a lower-resolution neighbor would produce, by rounding
// its two in-plane coordinates to even multiples. This avoids T-junction
// cracks where a full-resolution block meets a half-resolution one,
// trading a precise Transvoxel transition cell for a cheaper vertex
// weld that still closes the seam.
func WeldSeam(mesh *Mesh, blockSize int, spacing float32, face Face) {
	axis, positive := face.axisMagnitude()
	boundary := float32(0)
	if positive {
		boundary = float32(blockSize-1) * spacing
	}
	const epsilon = 0.5

	for i := range mesh.Vertices {
		v := mesh.Vertices[i].Position
		if abs32(component(v, axis)-boundary) > epsilon {
			continue
		}
		inAxis := (axis + 1) % 3
		inAxis2 := (axis + 2) % 3
		snapped := withComponent(v, inAxis, snapToEven(component(v, inAxis), spacing))
		snapped = withComponent(snapped, inAxis2, snapToEven(component(snapped, inAxis2), spacing))
		mesh.Vertices[i].Position = snapped
	}
}

func snapToEven(v, spacing float32) float32 {
	step := 2 * spacing
	return float32(int(v/step+0.5)) * step
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
