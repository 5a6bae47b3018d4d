package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/generator"
	"github.com/leterax/voxelengine/pkg/meshblocky"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func newTestVolume(t *testing.T) *data.VoxelData {
	t.Helper()
	cfg := data.Config{
		BlockSizePo2: 3, // 8^3 blocks
		LodCount:     2,
		Bounds:       vxmath.Box3i{Min: vxmath.Vec3i{X: -100, Y: -100, Z: -100}, Max: vxmath.Vec3i{X: 100, Y: 100, Z: 100}},
	}
	gen := generator.Flat{Height: 2, Channel: voxelbuf.ChannelType, VoxelType: 1}
	return data.New(cfg, gen, nil, nil, false, nil)
}

func TestMeshBlockTaskProducesNonEmptyMeshForSolidGround(t *testing.T) {
	vd := newTestVolume(t)
	lib := meshblocky.Bake(map[uint64]uint16{1: 0})
	task := &MeshBlockTask{
		LOD:            0,
		Pos:            vxmath.Vec3i{},
		Volume:         vd,
		Mesher:         BlockyMesher{Mesher: meshblocky.NewMesher(lib)},
		ViewerPos:      vxmath.Vec3i{},
		DropDistanceSq: 1 << 30,
	}

	res := task.Run(context.Background())
	require.Equal(t, ResultMeshed, res.Tag)
	out, ok := res.Output.(MeshOutput)
	require.True(t, ok)
	require.False(t, out.Empty)
}

func TestMeshBlockTaskDropsWhenBeyondDropDistance(t *testing.T) {
	vd := newTestVolume(t)
	lib := meshblocky.Bake(map[uint64]uint16{1: 0})
	task := &MeshBlockTask{
		LOD:            0,
		Pos:            vxmath.Vec3i{X: 1000},
		Volume:         vd,
		Mesher:         BlockyMesher{Mesher: meshblocky.NewMesher(lib)},
		ViewerPos:      vxmath.Vec3i{},
		DropDistanceSq: 10,
	}

	res := task.Run(context.Background())
	require.Equal(t, ResultDropped, res.Tag)
}

func TestMeshBlockTaskPriorityBiasesCoarserLODsEarlier(t *testing.T) {
	near := &MeshBlockTask{LOD: 3, Pos: vxmath.Vec3i{X: 5}, ViewerPos: vxmath.Vec3i{}}
	far := &MeshBlockTask{LOD: 0, Pos: vxmath.Vec3i{X: 5}, ViewerPos: vxmath.Vec3i{}}
	require.Less(t, near.Priority(), far.Priority())
}
