package region

import (
	"fmt"
	"os"
	"sync"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, ErrIO)
	}
	return nil
}

// VoxelStreamRegion implements data.Stream by storing each LOD's blocks
// in its own tree of region files under a shared root directory.
type VoxelStreamRegion struct {
	dir           string
	blockSize     int
	regionSizePo2 int
	sectorSize    int

	mu    sync.Mutex
	files map[string]*File // keyed by "lod:rx:ry:rz"
}

func NewVoxelStreamRegion(dir string, m Meta) *VoxelStreamRegion {
	return &VoxelStreamRegion{
		dir:           dir,
		blockSize:     1 << m.BlockSizePo2,
		regionSizePo2: m.RegionSizePo2,
		sectorSize:    m.SectorSize,
		files:         make(map[string]*File),
	}
}

func (s *VoxelStreamRegion) regionSize() int { return 1 << s.regionSizePo2 }

// regionAndLocal splits a block position into its region coordinate and
// the block's index within that region (both floor-divided, so negative
// positions wrap correctly).
func (s *VoxelStreamRegion) regionAndLocal(pos vxmath.Vec3i) (region vxmath.Vec3i, lx, ly, lz int) {
	n := int32(s.regionSize())
	fdiv := func(a, b int32) int32 {
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q
	}
	rx, ry, rz := fdiv(pos.X, n), fdiv(pos.Y, n), fdiv(pos.Z, n)
	region = vxmath.Vec3i{X: rx, Y: ry, Z: rz}
	lx = int(pos.X - rx*n)
	ly = int(pos.Y - ry*n)
	lz = int(pos.Z - rz*n)
	return
}

func (s *VoxelStreamRegion) fileFor(lod uint8, region vxmath.Vec3i) (*File, error) {
	key := fmt.Sprintf("%d:%d:%d:%d", lod, region.X, region.Y, region.Z)
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[key]; ok {
		return f, nil
	}
	dir := LodDir(s.dir, int(lod))
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	path := dir + "/" + RegionFileName(region.X, region.Y, region.Z)
	f, err := Open(path, s.regionSize(), s.sectorSize)
	if err != nil {
		return nil, err
	}
	s.files[key] = f
	return f, nil
}

func (s *VoxelStreamRegion) LoadBlock(pos vxmath.Vec3i, lod uint8) (*voxelbuf.VoxelBuffer, bool, error) {
	region, lx, ly, lz := s.regionAndLocal(pos)
	f, err := s.fileFor(lod, region)
	if err != nil {
		return nil, false, err
	}
	payload, ok, err := f.ReadBlock(lx, ly, lz)
	if err != nil || !ok {
		return nil, false, err
	}
	buf, err := DecodeBlock(payload, s.blockSize)
	if err != nil {
		return nil, false, err
	}
	return buf, true, nil
}

func (s *VoxelStreamRegion) SaveBlock(pos vxmath.Vec3i, lod uint8, buf *voxelbuf.VoxelBuffer) error {
	region, lx, ly, lz := s.regionAndLocal(pos)
	f, err := s.fileFor(lod, region)
	if err != nil {
		return err
	}
	return f.WriteBlock(lx, ly, lz, EncodeBlock(buf))
}

// Close releases every open region file handle.
func (s *VoxelStreamRegion) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, f := range s.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.files = make(map[string]*File)
	return first
}
