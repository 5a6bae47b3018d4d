// Package meshtransvoxel builds smooth isosurfaces from a VoxelBuffer's
// SDF channel using a surface-nets cell classification: one vertex per
// sign-changing cell, positioned by averaging its edge crossings, then
// connected into quads along every grid edge where the two endpoints
// disagree on sign. Every cell's vertex is solved once and cached in a
// dense grid so the four quads touching it (one per adjacent active
// edge) all reference the same vertex instead of re-solving it.
package meshtransvoxel

import (
	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// sampleSDF reads the signed distance at a buffer cell, clamping
// reads that fall outside (padding neighborhoods should be gathered by
// the caller so this rarely triggers).
func sampleSDF(buf *voxelbuf.VoxelBuffer, x, y, z int) float64 {
	size := buf.Size()
	if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
		return 1 // outside, unoccupied
	}
	v, _ := buf.GetF(voxelbuf.ChannelSDF, x, y, z)
	return v
}

// cornerOffsets are the 8 corners of one cell in (dx,dy,dz) order,
// matching the bit layout used by classifyCell (bit i set => corner i
// is inside the surface, i.e. SDF < 0).
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// cellEdges lists the 12 cube edges as corner index pairs.
var cellEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}
