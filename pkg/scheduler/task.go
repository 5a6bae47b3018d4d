// Package scheduler runs mesh and generation work across a fixed pool
// of workers, each with its own input/output queues synced on a fixed
// interval, generalizing the teacher's single chunkWorker goroutine
// (_examples/Leterax-go-voxels/pkg/game/chunk_manager.go) from one global channel into N
// per-worker queues with priority ordering, (LOD, position) dedup, and
// distance-based cancellation.
package scheduler

import (
	"context"

	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Key identifies a task by the (LOD, position) it targets. The
// scheduler's dedup index is keyed by this so pushing the same target
// twice replaces rather than duplicates.
type Key struct {
	LOD uint8
	Pos vxmath.Vec3i
}

// ResultTag distinguishes a completed mesh from one a task dropped
// without producing output.
type ResultTag uint8

const (
	ResultMeshed ResultTag = iota
	ResultDropped
)

// Result is what a Task hands back to the scheduler's output queue.
type Result struct {
	Key    Key
	Tag    ResultTag
	Output any
}

// Task is a unit of asynchronous work a worker runs to completion (or
// to a cancellation point). Implementations check IsCancelled at their
// own stage boundaries; Priority lower-sorts-first.
type Task interface {
	Key() Key
	Priority() int64
	IsCancelled() bool
	Run(ctx context.Context) Result
}
