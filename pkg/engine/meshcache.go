package engine

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/leterax/voxelengine/pkg/scheduler"
)

// ristretto only accepts string, []byte, or integer keys; scheduler.Key
// is a struct, so callers go through this string encoding instead of
// handing the struct straight to the cache.
func meshCacheKey(key scheduler.Key) string {
	return fmt.Sprintf("%d:%d:%d:%d", key.LOD, key.Pos.X, key.Pos.Y, key.Pos.Z)
}

// MeshCache memoizes recently applied MeshOutputs by scheduler.Key so a
// re-submission of an unchanged block (the viewer walking back into a
// region it just left) can be served without waiting on the worker
// pool. It is an optimization only: a cache miss just means the task
// runs again, so eviction under memory pressure is always safe.
type MeshCache struct {
	cache *ristretto.Cache
}

// NewMeshCache builds a cache sized for roughly maxEntries resident
// mesh outputs. Cost is counted as one unit per entry; callers that
// want byte-accurate accounting can wrap Set with their own cost calc.
func NewMeshCache(maxEntries int64) (*MeshCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MeshCache{cache: c}, nil
}

func (c *MeshCache) Get(key scheduler.Key) (scheduler.MeshOutput, bool) {
	v, ok := c.cache.Get(meshCacheKey(key))
	if !ok {
		return scheduler.MeshOutput{}, false
	}
	return v.(scheduler.MeshOutput), true
}

func (c *MeshCache) Set(key scheduler.Key, output scheduler.MeshOutput) {
	c.cache.Set(meshCacheKey(key), output, 1)
}

func (c *MeshCache) Del(key scheduler.Key) {
	c.cache.Del(meshCacheKey(key))
}

// Close releases the cache's background goroutines. Safe to call once,
// typically alongside Engine.Shutdown.
func (c *MeshCache) Close() {
	c.cache.Close()
}
