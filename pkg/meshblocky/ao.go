package meshblocky

import "github.com/leterax/voxelengine/pkg/voxelbuf"

// cornerAO estimates ambient occlusion at one quad corner by counting
// solid neighbors in the exterior layer touching that corner. The count,
// clamped to 3, gives 4 levels (0, 1/3, 2/3, 1) that match the classic side1+side2+corner darkness scalar
// used by cube renderers, generalized here to run directly against a
// VoxelBuffer's TYPE channel instead of a flat BlockType array.
func cornerAO(buf *voxelbuf.VoxelBuffer, size int, dir Direction, cx, cy, cz int) float32 {
	nx, ny, nz := exteriorNormal(dir)

	occluded := func(dx, dy, dz int) bool {
		x, y, z := cx+dx+nx, cy+dy+ny, cz+dz+nz
		if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
			return false
		}
		v, _ := buf.Get(voxelbuf.ChannelType, x, y, z)
		return v != 0
	}

	count := 0
	for _, d := range cornerOffsets(dir) {
		if occluded(d[0], d[1], d[2]) {
			count++
		}
	}
	if count > 3 {
		count = 3
	}
	return 1 - float32(count)/3
}

func exteriorNormal(dir Direction) (int, int, int) {
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

// cornerOffsets lists the 4 cells (in whichever two axes the face
// spans) whose solidity contributes occlusion to a corner on that face.
func cornerOffsets(dir Direction) [4][3]int {
	switch dir {
	case North, South:
		return [4][3]int{{-1, -1, 0}, {-1, 0, 0}, {0, -1, 0}, {0, 0, 0}}
	case East, West:
		return [4][3]int{{0, -1, -1}, {0, -1, 0}, {0, 0, -1}, {0, 0, 0}}
	default: // Up, Down
		return [4][3]int{{-1, 0, -1}, {-1, 0, 0}, {0, 0, -1}, {0, 0, 0}}
	}
}
