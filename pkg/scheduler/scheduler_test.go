package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leterax/voxelengine/pkg/vxmath"
)

type fakeTask struct {
	key      Key
	priority int64
	ran      chan struct{}
}

func (f *fakeTask) Key() Key             { return f.key }
func (f *fakeTask) Priority() int64      { return f.priority }
func (f *fakeTask) IsCancelled() bool    { return false }
func (f *fakeTask) Run(ctx context.Context) Result {
	close(f.ran)
	return Result{Key: f.key, Tag: ResultMeshed}
}

func TestSchedulerRunsSubmittedTask(t *testing.T) {
	s := New(2, 10*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Stop()

	task := &fakeTask{key: Key{LOD: 0, Pos: vxmath.Vec3i{}}, ran: make(chan struct{})}
	s.Submit(task)

	select {
	case <-task.ran:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(s.Drain()) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("result never drained")
}

func TestSchedulerDedupsByKeyKeepingLatest(t *testing.T) {
	w := newWorker(0)
	first := &fakeTask{key: Key{LOD: 0}, priority: 1, ran: make(chan struct{})}
	second := &fakeTask{key: Key{LOD: 0}, priority: 2, ran: make(chan struct{})}
	w.enqueue(first)
	w.enqueue(second)

	require.Equal(t, 1, w.load())
	local := w.snapshot()
	require.Len(t, local, 1)
	require.Equal(t, int64(2), local[0].Priority())
}

func TestPickWorkerPrefersLowestLoad(t *testing.T) {
	s := New(3, time.Hour, nil)
	s.workers[0].input = make([]Task, 5)
	s.workers[1].input = make([]Task, 1)
	s.workers[2].input = make([]Task, 3)

	w := s.pickWorker()
	require.Equal(t, 1, w.id)
}

func TestCancelledTaskStaysCancelledThroughSnapshot(t *testing.T) {
	task := &cancelledTask{key: Key{LOD: 1}}
	w := newWorker(0)
	w.enqueue(task)

	local := w.snapshot()
	require.True(t, local[0].IsCancelled())
}

type cancelledTask struct{ key Key }

func (c *cancelledTask) Key() Key          { return c.key }
func (c *cancelledTask) Priority() int64   { return 0 }
func (c *cancelledTask) IsCancelled() bool { return true }
func (c *cancelledTask) Run(ctx context.Context) Result {
	panic("should never run a cancelled task")
}
