// Package data implements VoxelDataMap and VoxelData: the multi-LOD,
// chunked, thread-safe map of voxel buffers with generator/stream
// fallback, edit tracking, and mip-propagation. It generalizes the
// single-map, one-mutex, one-worker-channel ChunkManager pattern into N
// per-LOD maps with spatial locking and generator fallback.
package data

import (
	"sync"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// DataBlock references a VoxelBuffer plus tracking flags: edited
// (user/script modified), modified (unsaved since last store), and a
// view reference count for streaming.
type DataBlock struct {
	Buffer *voxelbuf.VoxelBuffer

	mu sync.RWMutex // payload lock (RLock/Lock below)

	// flagMu guards the tracking flags, separately from mu, so they can be
	// read and set while the payload lock is held.
	flagMu   sync.Mutex
	edited   bool
	modified bool
	viewRefs int32
}

func NewDataBlock(buf *voxelbuf.VoxelBuffer) *DataBlock {
	return &DataBlock{Buffer: buf}
}

// RLock/RUnlock and Lock/Unlock guard the buffer's payload independently
// from the owning VoxelDataMap's structural lock.
func (db *DataBlock) RLock()   { db.mu.RLock() }
func (db *DataBlock) RUnlock() { db.mu.RUnlock() }
func (db *DataBlock) Lock()    { db.mu.Lock() }
func (db *DataBlock) Unlock()  { db.mu.Unlock() }

func (db *DataBlock) IsEdited() bool {
	db.flagMu.Lock()
	defer db.flagMu.Unlock()
	return db.edited
}

func (db *DataBlock) SetEdited(v bool) {
	db.flagMu.Lock()
	db.edited = v
	db.flagMu.Unlock()
}

func (db *DataBlock) IsModified() bool {
	db.flagMu.Lock()
	defer db.flagMu.Unlock()
	return db.modified
}

func (db *DataBlock) SetModified(v bool) {
	db.flagMu.Lock()
	db.modified = v
	db.flagMu.Unlock()
}

// AddViewRef/RemoveViewRef track in-flight streaming borrows so a block
// isn't evicted while a task still references it.
func (db *DataBlock) AddViewRef() {
	db.flagMu.Lock()
	db.viewRefs++
	db.flagMu.Unlock()
}

func (db *DataBlock) RemoveViewRef() {
	db.flagMu.Lock()
	if db.viewRefs > 0 {
		db.viewRefs--
	}
	db.flagMu.Unlock()
}

func (db *DataBlock) ViewRefs() int32 {
	db.flagMu.Lock()
	defer db.flagMu.Unlock()
	return db.viewRefs
}
