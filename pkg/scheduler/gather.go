package scheduler

import (
	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Padding is the number of extra voxels copied from each neighbor on
// every side of the anchor block, wide enough for the blocky mesher's
// AO sampling and the smooth mesher's gradient finite differences.
const Padding = 2

// allChannels lists the channels copied during gather: TYPE, SDF,
// INDICES and WEIGHTS. The three gradient channels are not copied and
// keep their default value in the padded buffer.
var allChannels = []voxelbuf.Channel{
	voxelbuf.ChannelType,
	voxelbuf.ChannelSDF,
	voxelbuf.ChannelIndices,
	voxelbuf.ChannelWeights,
}

// gatherPadded builds a `blockSize + 2*Padding`-wide buffer holding the
// anchor block at pos/lod plus a Padding-voxel halo copied from each of
// its 26 neighbors, faulting in any missing block via EnsureBlock.
func gatherPadded(vd *data.VoxelData, pos vxmath.Vec3i, lod uint8) *voxelbuf.VoxelBuffer {
	blockSize := vd.BlockSize()
	padded := voxelbuf.Create(blockSize + 2*Padding)

	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				neighborPos := pos.Add(vxmath.Vec3i{X: dx, Y: dy, Z: dz})
				block := vd.EnsureBlock(neighborPos, lod)
				copyHalo(padded, block, dx, dy, dz, blockSize)
			}
		}
	}
	return padded
}

// copyHalo copies the slab of src that borders the anchor block in
// direction (dx,dy,dz) into the corresponding region of dst. The anchor
// itself (dx=dy=dz=0) copies its full body.
func copyHalo(dst *voxelbuf.VoxelBuffer, block *data.DataBlock, dx, dy, dz int32, blockSize int) {
	block.RLock()
	defer block.RUnlock()
	src := block.Buffer

	srcRange := func(d int32) (lo, hi int) {
		switch {
		case d < 0:
			return blockSize - Padding, blockSize
		case d > 0:
			return 0, Padding
		default:
			return 0, blockSize
		}
	}
	dstBase := func(d int32) int {
		switch {
		case d < 0:
			return 0
		case d > 0:
			return Padding + blockSize
		default:
			return Padding
		}
	}

	xlo, xhi := srcRange(dx)
	ylo, yhi := srcRange(dy)
	zlo, zhi := srcRange(dz)
	dbx, dby, dbz := dstBase(dx), dstBase(dy), dstBase(dz)

	for _, c := range allChannels {
		for x := xlo; x < xhi; x++ {
			for y := ylo; y < yhi; y++ {
				for z := zlo; z < zhi; z++ {
					v, err := src.Get(c, x, y, z)
					if err != nil {
						continue
					}
					_ = dst.Set(c, dbx+(x-xlo), dby+(y-ylo), dbz+(z-zlo), v)
				}
			}
		}
	}
}
