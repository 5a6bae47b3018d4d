// Package lodoctree implements the per-region LOD octree: an
// arena-indexed tree of subdivide/merge nodes, and a Controller that
// drives subdivision toward the viewer and schedules re-meshing on
// edits and LOD transitions. The arena replaces pointer-linked nodes
// with a Go slice addressed by uint32 index and a free-list, following
// the design notes' "octree via arena" guidance to avoid pointer churn
// on frequent subdivide/merge.
package lodoctree

import "github.com/leterax/voxelengine/pkg/vxmath"

// Nil is the arena index meaning "no node".
const Nil uint32 = 0xFFFFFFFF

// Node is one octree cell: a cube of world space at a given LOD depth,
// either a leaf (shown, mesh visible) or subdivided into eight octants.
type Node struct {
	Parent     uint32
	Children   [8]uint32
	Center     vxmath.Vec3i // world-voxel center, LOD-0 units
	Size       int32        // edge length at LOD 0 units
	LOD        uint8
	Subdivided bool
	Visible    bool
}

// Octree is one arena of Nodes rooted at index Root.
type Octree struct {
	nodes []Node
	free  []uint32
	root  uint32
}

// New creates a single-node octree: one root leaf covering a cube of
// edge rootSize (LOD-0 voxel units) centered at rootCenter, at rootLOD.
func New(rootCenter vxmath.Vec3i, rootSize int32, rootLOD uint8) *Octree {
	o := &Octree{}
	root := o.alloc()
	o.nodes[root] = Node{
		Parent: Nil,
		Center: rootCenter,
		Size:   rootSize,
		LOD:    rootLOD,
		Visible: true,
	}
	for i := range o.nodes[root].Children {
		o.nodes[root].Children[i] = Nil
	}
	o.root = root
	return o
}

func (o *Octree) alloc() uint32 {
	if n := len(o.free); n > 0 {
		idx := o.free[n-1]
		o.free = o.free[:n-1]
		return idx
	}
	o.nodes = append(o.nodes, Node{})
	return uint32(len(o.nodes) - 1)
}

func (o *Octree) release(idx uint32) {
	o.nodes[idx] = Node{}
	o.free = append(o.free, idx)
}

func (o *Octree) Root() uint32 { return o.root }

func (o *Octree) Node(idx uint32) *Node { return &o.nodes[idx] }

// octantSigns gives the 8 child-center offsets as a fraction of the
// parent's quarter-size, in octant order (bit0=+X, bit1=+Y, bit2=+Z).
var octantSigns = [8][3]int32{
	{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
}

// Subdivide allocates a node's eight children, sized and centered
// within the parent, and marks the parent subdivided+hidden. Returns
// the new children's indices. Calling Subdivide on an already
// subdivided node is a caller bug.
func (o *Octree) Subdivide(idx uint32) [8]uint32 {
	parent := o.nodes[idx] // copy: alloc below may reallocate o.nodes
	childSize := parent.Size / 2
	quarter := childSize / 2

	var children [8]uint32
	for i, sign := range octantSigns {
		c := o.alloc()
		center := vxmath.Vec3i{
			X: parent.Center.X + sign[0]*quarter,
			Y: parent.Center.Y + sign[1]*quarter,
			Z: parent.Center.Z + sign[2]*quarter,
		}
		o.nodes[c] = Node{
			Parent:  idx,
			Center:  center,
			Size:    childSize,
			LOD:     parent.LOD - 1,
			Visible: true,
		}
		for j := range o.nodes[c].Children {
			o.nodes[c].Children[j] = Nil
		}
		children[i] = c
	}

	p := &o.nodes[idx]
	p.Children = children
	p.Subdivided = true
	p.Visible = false
	return children
}

// Merge recursively frees idx's subtree (but not idx itself), marking
// idx a visible leaf again.
func (o *Octree) Merge(idx uint32) {
	node := &o.nodes[idx]
	if !node.Subdivided {
		return
	}
	for _, c := range node.Children {
		if c == Nil {
			continue
		}
		o.Merge(c)
		o.release(c)
	}
	node.Children = [8]uint32{Nil, Nil, Nil, Nil, Nil, Nil, Nil, Nil}
	node.Subdivided = false
	node.Visible = true
}

// Leaves appends every currently-visible (non-subdivided) node index
// reachable from idx into out.
func (o *Octree) Leaves(idx uint32, out []uint32) []uint32 {
	node := &o.nodes[idx]
	if !node.Subdivided {
		return append(out, idx)
	}
	for _, c := range node.Children {
		if c != Nil {
			out = o.Leaves(c, out)
		}
	}
	return out
}
