package data

import (
	"sort"
	"sync"

	"github.com/leterax/voxelengine/pkg/vxmath"
)

// VoxelDataMap is a mapping from block coordinate to DataBlock for one
// LOD, plus a bounding box for the world. The map at LOD L stores
// buffers at voxel spacing 2^L; block size is constant across LODs.
type VoxelDataMap struct {
	lod       uint8
	blockSize int

	mu     sync.RWMutex
	blocks map[vxmath.Vec3i]*DataBlock
	bounds vxmath.Box3i
}

func NewVoxelDataMap(lod uint8, blockSize int, bounds vxmath.Box3i) *VoxelDataMap {
	return &VoxelDataMap{
		lod:       lod,
		blockSize: blockSize,
		blocks:    make(map[vxmath.Vec3i]*DataBlock),
		bounds:    bounds,
	}
}

func (m *VoxelDataMap) LOD() uint8        { return m.lod }
func (m *VoxelDataMap) BlockSize() int    { return m.blockSize }
func (m *VoxelDataMap) Bounds() vxmath.Box3i { return m.bounds }

// Get returns the block at pos, if present. Callers must not retain the
// map's internal lock across further map operations.
func (m *VoxelDataMap) Get(pos vxmath.Vec3i) (*DataBlock, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[pos]
	return b, ok
}

func (m *VoxelDataMap) Has(pos vxmath.Vec3i) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[pos]
	return ok
}

// TrySetBlock inserts atomically and fails if the slot is occupied.
func (m *VoxelDataMap) TrySetBlock(pos vxmath.Vec3i, block *DataBlock) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.blocks[pos]; exists {
		return false
	}
	m.blocks[pos] = block
	return true
}

// TrySetBlockOrMerge inserts block at pos, or, if a block already
// exists there, invokes actionWhenExists with the existing block so the
// caller can merge instead of overwriting.
func (m *VoxelDataMap) TrySetBlockOrMerge(pos vxmath.Vec3i, block *DataBlock, actionWhenExists func(existing *DataBlock)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, exists := m.blocks[pos]; exists {
		actionWhenExists(existing)
		return
	}
	m.blocks[pos] = block
}

// Remove deletes the block at pos. Removal is idempotent.
func (m *VoxelDataMap) Remove(pos vxmath.Vec3i) {
	m.mu.Lock()
	delete(m.blocks, pos)
	m.mu.Unlock()
}

// ForEachInBox calls fn for every block whose position lies in box
// (block-coordinate space, not world-voxel space).
func (m *VoxelDataMap) ForEachInBox(box vxmath.Box3i, fn func(pos vxmath.Vec3i, b *DataBlock)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for pos, b := range m.blocks {
		if box.Contains(pos) {
			fn(pos, b)
		}
	}
}

// Count returns the number of resident blocks.
func (m *VoxelDataMap) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}

// lockSorted acquires the write (or read) lock of each existing block
// among positions, in ascending key order, preventing deadlock between
// concurrent overlapping spatial locks.
func (m *VoxelDataMap) lockSorted(positions []vxmath.Vec3i, write bool) []*DataBlock {
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	locked := make([]*DataBlock, 0, len(positions))
	m.mu.RLock()
	for _, p := range positions {
		if b, ok := m.blocks[p]; ok {
			locked = append(locked, b)
		}
	}
	m.mu.RUnlock()
	for _, b := range locked {
		if write {
			b.Lock()
		} else {
			b.RLock()
		}
	}
	return locked
}

// SpatialLock acquires a multi-block box-range lock over every resident
// block overlapping box, permitting concurrent non-overlapping edits.
// The returned unlock func must be called exactly once.
func (m *VoxelDataMap) SpatialLock(box vxmath.Box3i, write bool) (unlock func()) {
	var positions []vxmath.Vec3i
	m.ForEachInBox(box, func(pos vxmath.Vec3i, _ *DataBlock) {
		positions = append(positions, pos)
	})
	locked := m.lockSorted(positions, write)
	return func() {
		for _, b := range locked {
			if write {
				b.Unlock()
			} else {
				b.RUnlock()
			}
		}
	}
}
