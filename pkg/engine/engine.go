package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/leterax/voxelengine/pkg/detailtexture"
	"github.com/leterax/voxelengine/pkg/scheduler"
)

// Engine wires the process-wide Registry to the process-wide
// TaskScheduler (and, when GPU baking is on, the GPURunner), and is
// the thing cmd/voxelengine boots once at startup and tears down once
// at shutdown. Submitting and applying tasks is the only place engine
// needs to know which volume a (LOD, position) task belongs to; it
// tracks that with a small pending-key index rather than threading a
// VolumeID through scheduler.Task itself, so pkg/scheduler stays
// volume-agnostic.
type Engine struct {
	Registry  *Registry
	Scheduler *scheduler.TaskScheduler
	GPU       *scheduler.GPURunner // nil when GPU-enabled is false

	// MeshCache, when set, is populated with every applied mesh result
	// and consulted nowhere by Engine itself -- callers that resubmit a
	// MeshBlockTask for a key they already hold a cached output for can
	// check it first and skip the scheduler entirely.
	MeshCache *MeshCache

	logger *zap.Logger

	pendingMu     sync.Mutex
	pendingMesh   map[scheduler.Key]VolumeID
	pendingDetail map[scheduler.Key]VolumeID

	gpuWG sync.WaitGroup
}

func New(sched *scheduler.TaskScheduler, gpu *scheduler.GPURunner, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Registry:      NewRegistry(),
		Scheduler:     sched,
		GPU:           gpu,
		logger:        logger,
		pendingMesh:   make(map[scheduler.Key]VolumeID),
		pendingDetail: make(map[scheduler.Key]VolumeID),
	}
}

// Boot starts the scheduler's worker pool and, if a GPU runner was
// configured, its dedicated dispatch goroutine. Per the "global state"
// design note this is meant to run exactly once per process lifetime.
func (e *Engine) Boot(ctx context.Context) {
	e.Scheduler.Start(ctx)
	if e.GPU != nil {
		e.gpuWG.Add(1)
		go func() {
			defer e.gpuWG.Done()
			e.GPU.Run()
		}()
	}
	e.logger.Info("engine booted")
}

// Shutdown joins every scheduler worker goroutine and, if a GPU runner
// is active, waits for its queue to drain before returning -- the
// caller is expected to tear down the rendering device only after
// Shutdown returns.
func (e *Engine) Shutdown() {
	e.Scheduler.Stop()
	if e.GPU != nil {
		e.GPU.Stop()
		e.gpuWG.Wait()
	}
	if e.MeshCache != nil {
		e.MeshCache.Close()
	}
	e.logger.Info("engine shut down")
	_ = e.logger.Sync()
}

// SubmitMeshTask records which volume task targets so ApplyResults can
// route its eventual result to that volume's callback, then hands it
// to the scheduler. Submitting a second task for the same (LOD, Pos)
// before the first resolves overwrites the routing entry exactly the
// way the scheduler's own dedup overwrites the pending task -- the
// newer submission wins both places.
func (e *Engine) SubmitMeshTask(id VolumeID, task *scheduler.MeshBlockTask) {
	e.pendingMu.Lock()
	e.pendingMesh[task.Key()] = id
	e.pendingMu.Unlock()
	e.Scheduler.Submit(task)
}

// SubmitGPUTask records the routing entry for a detail-texture GPU
// task and hands it to the GPU runner. Panics if no GPU runner was
// configured, since calling it then is a wiring bug, not a runtime
// condition.
func (e *Engine) SubmitGPUTask(id VolumeID, key scheduler.Key, task scheduler.GPUTask) {
	if e.GPU == nil {
		panic("engine: SubmitGPUTask called with no GPU runner configured")
	}
	e.pendingMu.Lock()
	e.pendingDetail[key] = id
	e.pendingMu.Unlock()
	e.GPU.Submit(task)
}

// ApplyResults drains every completed mesh task (and, if a GPU runner
// is configured, every completed detail-texture task) and invokes the
// matching volume's callback struct. Results for a VolumeID that was
// unregistered, or whose routing entry is missing (a stale or never-
// submitted key), are dropped with a debug log -- mirroring
// DependencyInvalidated/Cancelled semantics: not an error, just a
// silently dropped task.
func (e *Engine) ApplyResults() {
	for _, res := range e.Scheduler.Drain() {
		e.applyMeshResult(res)
	}
	if e.GPU != nil {
		for _, res := range e.GPU.Drain() {
			e.applyDetailResult(res)
		}
	}
}

func (e *Engine) applyMeshResult(res scheduler.Result) {
	id, ok := e.takePending(e.pendingMesh, res.Key)
	if !ok {
		e.logger.Debug("mesh result dropped: no pending routing entry", zap.Any("key", res.Key))
		return
	}
	if res.Tag != scheduler.ResultMeshed {
		return
	}
	cb, ok := e.Registry.callbacksFor(id)
	if !ok || cb.MeshOutputCallback == nil {
		return
	}
	output, ok := res.Output.(scheduler.MeshOutput)
	if !ok {
		return
	}
	if e.MeshCache != nil {
		e.MeshCache.Set(res.Key, output)
	}
	cb.MeshOutputCallback(cb.Data, res.Key, output)
}

func (e *Engine) applyDetailResult(res scheduler.Result) {
	id, ok := e.takePending(e.pendingDetail, res.Key)
	if !ok {
		e.logger.Debug("detail texture result dropped: no pending routing entry", zap.Any("key", res.Key))
		return
	}
	if res.Tag != scheduler.ResultMeshed {
		return
	}
	cb, ok := e.Registry.callbacksFor(id)
	if !ok || cb.DetailTextureOutputCallback == nil {
		return
	}
	atlas, _ := res.Output.(*detailtexture.TileAtlas)
	cb.DetailTextureOutputCallback(cb.Data, res.Key, atlas)
}

func (e *Engine) takePending(m map[scheduler.Key]VolumeID, key scheduler.Key) (VolumeID, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	id, ok := m[key]
	if ok {
		delete(m, key)
	}
	return id, ok
}
