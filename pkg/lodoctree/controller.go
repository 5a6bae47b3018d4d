package lodoctree

import "github.com/leterax/voxelengine/pkg/vxmath"

// BlockRef names one mesh block by LOD and its node's center in
// LOD-0 world-voxel units. It mirrors scheduler.Key without importing
// pkg/scheduler, keeping the octree controller's dependency direction
// one-way (engine wires BlockRef into scheduler.Key, converting the
// center to a block-grid position by shifting out the block size and
// LOD).
type BlockRef struct {
	LOD uint8
	Pos vxmath.Vec3i
}

// Hooks lets the enclosing system decide readiness and react to
// visibility transitions without the octree knowing about meshing,
// streaming, or the scheduler.
type Hooks interface {
	// CanSubdivide reports whether all eight children of node are
	// ready to show (their mesh tasks have completed).
	CanSubdivide(node BlockRef) bool
	// CanMerge reports whether node itself is ready to show.
	CanMerge(node BlockRef) bool
	// SubdivideAction is called right after node's children become
	// visible and node itself is hidden; used to mark seam neighbors
	// dirty.
	SubdivideAction(node BlockRef)
	// UnsubdivideAction is called right after node itself becomes
	// visible again and its children are freed.
	UnsubdivideAction(node BlockRef)
}

// Controller drives one Octree's subdivide/merge decisions from a
// viewer position.
type Controller struct {
	Tree       *Octree
	SplitScale float32
	Hooks      Hooks
}

func NewController(tree *Octree, splitScale float32, hooks Hooks) *Controller {
	return &Controller{Tree: tree, SplitScale: splitScale, Hooks: hooks}
}

// Update runs one subdivide/merge pass from the root given the
// viewer's LOD-0 position.
func (c *Controller) Update(viewerPos vxmath.Vec3i) {
	c.visit(c.Tree.Root(), viewerPos)
}

func (c *Controller) visit(idx uint32, viewerPos vxmath.Vec3i) {
	node := c.Tree.Node(idx)
	ref := BlockRef{LOD: node.LOD, Pos: node.Center}
	threshold := int64(c.SplitScale*float32(node.Size)) * int64(c.SplitScale*float32(node.Size))
	distSq := node.Center.DistanceSquared(viewerPos)

	if !node.Subdivided {
		if node.LOD > 0 && distSq < threshold && c.Hooks.CanSubdivide(ref) {
			children := c.Tree.Subdivide(idx)
			c.Hooks.SubdivideAction(ref)
			for _, child := range children {
				c.visit(child, viewerPos)
			}
		}
		return
	}

	if distSq >= threshold && c.Hooks.CanMerge(ref) {
		c.Tree.Merge(idx)
		c.Hooks.UnsubdivideAction(ref)
		return
	}

	for _, child := range node.Children {
		if child != Nil {
			c.visit(child, viewerPos)
		}
	}
}

// VisibleBlocks returns the BlockRef of every currently-shown leaf,
// which by construction partitions the octree's covered volume: no two
// entries overlap and every point inside is covered by exactly one.
func (c *Controller) VisibleBlocks() []BlockRef {
	leaves := c.Tree.Leaves(c.Tree.Root(), nil)
	refs := make([]BlockRef, len(leaves))
	for i, idx := range leaves {
		n := c.Tree.Node(idx)
		refs[i] = BlockRef{LOD: n.LOD, Pos: n.Center}
	}
	return refs
}
