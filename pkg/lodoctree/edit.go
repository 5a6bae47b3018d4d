package lodoctree

import "github.com/leterax/voxelengine/pkg/vxmath"

// PropagateEdit computes every block that must be re-meshed after an
// LOD-0 edit at editPos: block(editPos, 0) itself, then at each higher
// LOD up to lodCount-1, the first shown ancestor node along the path
// from the LOD-0 position -- because an edit changes that ancestor's
// mip even though the ancestor's own voxels weren't touched directly.
// A node at LOD L is "shown" if it's a leaf (not subdivided); the walk
// stops climbing past the first shown ancestor since every node above
// it is, by construction, also not subdivided (you can't subdivide a
// node whose child isn't itself a leaf or subdivided further).
func (c *Controller) PropagateEdit(editPos vxmath.Vec3i, lodCount uint8) []BlockRef {
	refs := []BlockRef{{LOD: 0, Pos: editPos}}

	node := c.locate(c.Tree.Root(), editPos)
	if node == Nil {
		return refs
	}

	seen := map[uint8]bool{0: true}
	for idx := node; idx != Nil; idx = c.Tree.Node(idx).Parent {
		n := c.Tree.Node(idx)
		if n.Subdivided {
			continue
		}
		if seen[n.LOD] {
			continue
		}
		seen[n.LOD] = true
		refs = append(refs, BlockRef{LOD: n.LOD, Pos: n.Center})
		if n.LOD+1 >= lodCount {
			break
		}
	}
	return refs
}

// locate finds the deepest node in idx's subtree whose cube contains
// pos, descending into children when subdivided.
func (c *Controller) locate(idx uint32, pos vxmath.Vec3i) uint32 {
	node := c.Tree.Node(idx)
	half := node.Size / 2
	if pos.X < node.Center.X-half || pos.X >= node.Center.X+half ||
		pos.Y < node.Center.Y-half || pos.Y >= node.Center.Y+half ||
		pos.Z < node.Center.Z-half || pos.Z >= node.Center.Z+half {
		return Nil
	}
	if !node.Subdivided {
		return idx
	}
	for _, child := range node.Children {
		if child == Nil {
			continue
		}
		if found := c.locate(child, pos); found != Nil {
			return found
		}
	}
	return idx
}

// faceOffsets are the 6 face-neighbor directions in block-grid units.
var faceOffsets = [6]vxmath.Vec3i{
	{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1},
}

// SeamNeighbors returns the up to 6 face-adjacent blocks at the same
// LOD whose transition mesh must be recomputed after block's LOD
// changed, addressed in that LOD's block-grid coordinates (not world
// units, unlike BlockRef.Pos elsewhere in this package).
func SeamNeighbors(lod uint8, blockPos vxmath.Vec3i) []BlockRef {
	out := make([]BlockRef, 0, 6)
	for _, off := range faceOffsets {
		out = append(out, BlockRef{LOD: lod, Pos: blockPos.Add(off)})
	}
	return out
}
