package scheduler

import (
	"sync"

	"github.com/leterax/voxelengine/pkg/detailtexture"
)

// GPUTask is a unit of work the GPU runner thread owns exclusively:
// storage buffers are allocated in Prepare and released in Collect, so
// no other goroutine touches the device-side pool while a task is
// in flight.
type GPUTask interface {
	Prepare(pool *detailtexture.GPUBucketPool)
	Dispatch()
	Collect(pool *detailtexture.GPUBucketPool) Result
}

// GPURunner is the single thread that owns the rendering-device handle
// and runs one prepare/dispatch/collect cycle per queued task, in the
// order tasks arrive, following the same stop-channel/worker-goroutine shape as the
// teacher's chunkWorker.
type GPURunner struct {
	pool  *detailtexture.GPUBucketPool
	queue chan GPUTask
	exit  chan struct{}
	done  chan struct{}

	outMu sync.Mutex
	out   []Result
}

func NewGPURunner(pool *detailtexture.GPUBucketPool, queueDepth int) *GPURunner {
	if queueDepth < 1 {
		queueDepth = 64
	}
	return &GPURunner{
		pool:  pool,
		queue: make(chan GPUTask, queueDepth),
		exit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Submit enqueues a GPU task. Blocks if the queue is full, applying
// natural backpressure instead of growing unbounded.
func (r *GPURunner) Submit(t GPUTask) {
	r.queue <- t
}

// Run processes queued tasks one at a time until Stop is called.
func (r *GPURunner) Run() {
	defer close(r.done)
	for {
		select {
		case <-r.exit:
			return
		case t := <-r.queue:
			t.Prepare(r.pool)
			t.Dispatch()
			res := t.Collect(r.pool)
			r.outMu.Lock()
			r.out = append(r.out, res)
			r.outMu.Unlock()
		}
	}
}

func (r *GPURunner) Stop() {
	close(r.exit)
	<-r.done
}

// Drain returns every result collected since the last call.
func (r *GPURunner) Drain() []Result {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if len(r.out) == 0 {
		return nil
	}
	out := r.out
	r.out = nil
	return out
}
