// Package generator implements on-demand voxel producers called
// whenever a block is missing from storage and needs fresh content.
package generator

import (
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Flat fills TYPE (or SDF) up to a fixed height. It bails out before
// touching a single voxel when the whole queried block lies entirely
// above or below the height plane.
type Flat struct {
	Height    float64
	Channel   voxelbuf.Channel
	VoxelType uint64
}

func (f Flat) Generate(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := float64(int64(1) << lod)
	margin := spacing

	if float64(origin.Y) > f.Height+margin {
		return // entirely above ground: stays default (air / +SDF)
	}
	top := float64(origin.Y) + float64(size)*spacing
	useSDF := f.Channel == voxelbuf.ChannelSDF
	if top < f.Height-margin {
		if !useSDF {
			_ = buf.ClearChannel(f.Channel, f.VoxelType)
			return
		}
		// Not a consistent SDF gradient this far from the surface, but
		// fine for a block that will never be meshed at this distance.
	}

	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			for y := 0; y < size; y++ {
				wy := float64(origin.Y) + float64(y)*spacing
				if useSDF {
					_ = buf.SetF(voxelbuf.ChannelSDF, x, y, z, wy-f.Height)
				} else if wy < f.Height {
					_ = buf.Set(f.Channel, x, y, z, f.VoxelType)
				}
			}
		}
	}
}
