package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/scheduler"
	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func newTestVolume(t *testing.T) *data.VoxelData {
	t.Helper()
	cfg := data.Config{
		BlockSizePo2: 4,
		LodCount:     1,
		Bounds:       vxmath.Box3i{Min: vxmath.Vec3i{X: -2, Y: -2, Z: -2}, Max: vxmath.Vec3i{X: 2, Y: 2, Z: 2}},
	}
	return data.New(cfg, nil, nil, nil, false, nil)
}

func TestRegistryRegisterResolvesVolumeAndCallbacks(t *testing.T) {
	reg := NewRegistry()
	vd := newTestVolume(t)

	id := reg.Register(vd, Callbacks{Data: "context"})
	require.Equal(t, 1, reg.Len())

	got, ok := reg.Volume(id)
	require.True(t, ok)
	require.Same(t, vd, got)

	reg.Unregister(id)
	_, ok = reg.Volume(id)
	require.False(t, ok)
	require.Equal(t, 0, reg.Len())
}

// noopMesher satisfies scheduler.Mesher without touching the real
// meshblocky/meshtransvoxel builders, so this test exercises engine's
// routing plumbing independent of mesh-building correctness.
type noopMesher struct{}

func (noopMesher) MeshBlock(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) scheduler.MeshOutput {
	return scheduler.MeshOutput{Empty: true}
}

func TestEngineAppliesMeshResultToRegisteredVolumesCallback(t *testing.T) {
	sched := scheduler.New(1, 5*time.Millisecond, nil)
	e := New(sched, nil, nil)
	e.Boot(context.Background())
	defer e.Shutdown()

	vd := newTestVolume(t)
	invoked := make(chan scheduler.Key, 1)
	id := e.Registry.Register(vd, Callbacks{
		Data: "ctx",
		MeshOutputCallback: func(data any, key scheduler.Key, output scheduler.MeshOutput) {
			require.Equal(t, "ctx", data)
			invoked <- key
		},
	})

	task := &scheduler.MeshBlockTask{
		LOD:    0,
		Pos:    vxmath.Vec3i{X: 0},
		Volume: vd,
		Mesher: noopMesher{},
	}
	e.SubmitMeshTask(id, task)

	deadline := time.After(2 * time.Second)
	for {
		e.ApplyResults()
		select {
		case key := <-invoked:
			require.Equal(t, task.Key(), key)
			return
		case <-deadline:
			t.Fatal("mesh output callback never invoked")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestEngineDropsResultWithNoRoutingEntry(t *testing.T) {
	sched := scheduler.New(1, 5*time.Millisecond, nil)
	e := New(sched, nil, nil)
	e.Boot(context.Background())
	defer e.Shutdown()

	called := false
	vd := newTestVolume(t)
	e.Registry.Register(vd, Callbacks{
		MeshOutputCallback: func(data any, key scheduler.Key, output scheduler.MeshOutput) {
			called = true
		},
	})

	// Never submitted through SubmitMeshTask, so ApplyResults has no
	// pending routing entry and must not panic or invoke the callback.
	e.ApplyResults()
	require.False(t, called)
}

func TestEnginePopulatesMeshCacheOnApply(t *testing.T) {
	sched := scheduler.New(1, 5*time.Millisecond, nil)
	e := New(sched, nil, nil)
	e.Boot(context.Background())
	defer e.Shutdown()

	cache, err := NewMeshCache(16)
	require.NoError(t, err)
	e.MeshCache = cache

	vd := newTestVolume(t)
	invoked := make(chan scheduler.Key, 1)
	id := e.Registry.Register(vd, Callbacks{
		MeshOutputCallback: func(data any, key scheduler.Key, output scheduler.MeshOutput) {
			invoked <- key
		},
	})

	task := &scheduler.MeshBlockTask{
		LOD:    0,
		Pos:    vxmath.Vec3i{X: 1},
		Volume: vd,
		Mesher: noopMesher{},
	}
	e.SubmitMeshTask(id, task)

	deadline := time.After(2 * time.Second)
	for {
		e.ApplyResults()
		select {
		case <-invoked:
			out, ok := e.MeshCache.Get(task.Key())
			require.True(t, ok)
			require.True(t, out.Empty)
			return
		case <-deadline:
			t.Fatal("mesh output callback never invoked")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
