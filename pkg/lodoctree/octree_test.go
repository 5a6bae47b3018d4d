package lodoctree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/vxmath"
)

func TestSubdivideCreatesEightDistinctChildren(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	children := o.Subdivide(o.Root())

	seen := map[uint32]bool{}
	for _, c := range children {
		require.False(t, seen[c])
		seen[c] = true
		node := o.Node(c)
		require.Equal(t, uint8(1), node.LOD)
		require.True(t, node.Visible)
	}
	require.True(t, o.Node(o.Root()).Subdivided)
	require.False(t, o.Node(o.Root()).Visible)
}

func TestMergeFreesChildrenAndRestoresLeaf(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	root := o.Root()
	o.Subdivide(root)
	o.Merge(root)

	require.False(t, o.Node(root).Subdivided)
	require.True(t, o.Node(root).Visible)
	for _, c := range o.Node(root).Children {
		require.Equal(t, Nil, c)
	}
}

func TestArenaReusesFreedSlotsAfterMerge(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	root := o.Root()
	o.Subdivide(root)
	before := len(o.nodes)
	o.Merge(root)
	o.Subdivide(root)
	require.Equal(t, before, len(o.nodes))
}

type fakeHooks struct {
	subdivides int
	merges     int
}

func (f *fakeHooks) CanSubdivide(BlockRef) bool { return true }
func (f *fakeHooks) CanMerge(BlockRef) bool     { return true }
func (f *fakeHooks) SubdivideAction(BlockRef)   { f.subdivides++ }
func (f *fakeHooks) UnsubdivideAction(BlockRef) { f.merges++ }

func TestControllerSubdividesWhenViewerIsClose(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	hooks := &fakeHooks{}
	ctrl := NewController(o, 2.0, hooks)

	ctrl.Update(vxmath.Vec3i{X: 30})
	require.True(t, o.Node(o.Root()).Subdivided)
	require.Equal(t, 1, hooks.subdivides)
}

func TestControllerLeavesCoarseWhenViewerIsFar(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	hooks := &fakeHooks{}
	ctrl := NewController(o, 2.0, hooks)

	ctrl.Update(vxmath.Vec3i{X: 100000})
	require.False(t, o.Node(o.Root()).Subdivided)
	require.Equal(t, 0, hooks.subdivides)
}

func TestControllerMergesBackWhenViewerRetreats(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	hooks := &fakeHooks{}
	ctrl := NewController(o, 2.0, hooks)

	ctrl.Update(vxmath.Vec3i{X: 30})
	require.True(t, o.Node(o.Root()).Subdivided)

	ctrl.Update(vxmath.Vec3i{X: 100000})
	require.False(t, o.Node(o.Root()).Subdivided)
	require.Equal(t, 1, hooks.merges)
}

func TestVisibleBlocksPartitionTheVolume(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	hooks := &fakeHooks{}
	ctrl := NewController(o, 2.0, hooks)
	ctrl.Update(vxmath.Vec3i{X: 30})

	refs := ctrl.VisibleBlocks()
	require.Len(t, refs, 8)
}

func TestSeamNeighborsReturnsSixFaceAdjacentBlocks(t *testing.T) {
	refs := SeamNeighbors(1, vxmath.Vec3i{X: 5, Y: 5, Z: 5})
	require.Len(t, refs, 6)
	for _, r := range refs {
		require.Equal(t, uint8(1), r.LOD)
	}
}

func TestPropagateEditIncludesLOD0AndShownAncestor(t *testing.T) {
	o := New(vxmath.Vec3i{}, 16, 2)
	hooks := &fakeHooks{}
	ctrl := NewController(o, 2.0, hooks)

	refs := ctrl.PropagateEdit(vxmath.Vec3i{X: 1, Y: 1, Z: 1}, 3)
	require.Equal(t, uint8(0), refs[0].LOD)
	require.Greater(t, len(refs), 1)
}
