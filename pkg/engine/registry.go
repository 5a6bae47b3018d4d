// Package engine owns the process-wide volume registry and task
// scheduler, and is the single place VolumeID handles are minted,
// mirroring the design notes' "global state" guidance: both are
// initialized once at boot and torn down together by joining worker
// goroutines (and, when GPU baking is enabled, draining the GPU
// runner) before the caller releases any rendering device.
package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/leterax/voxelengine/pkg/data"
	"github.com/leterax/voxelengine/pkg/detailtexture"
	"github.com/leterax/voxelengine/pkg/scheduler"
)

// VolumeID is the opaque handle callers use to refer to a registered
// volume. It never encodes meaning; callers must go through the
// registry to resolve it back to a *data.VoxelData.
type VolumeID uuid.UUID

func (id VolumeID) String() string { return uuid.UUID(id).String() }

var NilVolumeID VolumeID

// MeshOutputFunc is invoked when a mesh task for a registered volume
// completes. data is the opaque value the volume was registered with;
// the callback receives the output by value and is free to upload it,
// attach collision shapes, or drop it.
type MeshOutputFunc func(data any, key scheduler.Key, output scheduler.MeshOutput)

// DetailTextureOutputFunc is invoked when a GPU detail-texture dispatch
// for a registered volume completes.
type DetailTextureOutputFunc func(data any, key scheduler.Key, atlas *detailtexture.TileAtlas)

// Callbacks is the per-volume registration struct: {data,
// mesh_output_callback, detail_texture_output_callback}. Either
// callback may be nil; a nil callback just means that class of result
// is dropped silently once drained.
type Callbacks struct {
	Data                        any
	MeshOutputCallback          MeshOutputFunc
	DetailTextureOutputCallback DetailTextureOutputFunc
}

type volumeEntry struct {
	volume    *data.VoxelData
	callbacks Callbacks
}

// Registry maps opaque VolumeIDs to a volume and its callback struct.
// It is safe for concurrent use; the engine's Apply* methods read it
// while task-submitting goroutines may be registering or unregistering
// other volumes at the same time.
type Registry struct {
	mu      sync.RWMutex
	volumes map[VolumeID]*volumeEntry
}

func NewRegistry() *Registry {
	return &Registry{volumes: make(map[VolumeID]*volumeEntry)}
}

// Register mints a new VolumeID for vd and stores cb alongside it.
func (r *Registry) Register(vd *data.VoxelData, cb Callbacks) VolumeID {
	id := VolumeID(uuid.New())
	r.mu.Lock()
	r.volumes[id] = &volumeEntry{volume: vd, callbacks: cb}
	r.mu.Unlock()
	return id
}

// Unregister drops id from the registry. Any task already submitted
// against this volume's data may still complete; its result is simply
// dropped when Apply* can't find a matching entry.
func (r *Registry) Unregister(id VolumeID) {
	r.mu.Lock()
	delete(r.volumes, id)
	r.mu.Unlock()
}

// Volume resolves id back to its registered *data.VoxelData.
func (r *Registry) Volume(id VolumeID) (*data.VoxelData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.volumes[id]
	if !ok {
		return nil, false
	}
	return e.volume, true
}

func (r *Registry) callbacksFor(id VolumeID) (Callbacks, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.volumes[id]
	if !ok {
		return Callbacks{}, false
	}
	return e.callbacks, true
}

// Len reports the number of currently registered volumes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.volumes)
}
