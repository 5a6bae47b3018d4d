package data

import (
	"fmt"
	"sort"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config describes the fixed geometry of a VoxelData instance.
type Config struct {
	BlockSizePo2 uint8 // log2(block edge length)
	LodCount     uint8
	Bounds       vxmath.Box3i // world bounds at LOD 0, in blocks
}

func (c Config) BlockSize() int { return 1 << c.BlockSizePo2 }

// VoxelData aggregates the N per-LOD maps, a bounds box, a generator, a
// stream, a modifier stack, and the streaming_enabled flag. When streaming is disabled, "no block in memory" means "the
// generator is authoritative"; when enabled, it means "not yet loaded".
type VoxelData struct {
	cfg    Config
	lodMaps []*VoxelDataMap

	Generator Generator
	Stream    Stream
	Modifiers Modifiers

	StreamingEnabled bool

	log *zap.Logger
	sf  singleflight.Group
}

func New(cfg Config, gen Generator, stream Stream, mods Modifiers, streamingEnabled bool, log *zap.Logger) *VoxelData {
	if mods == nil {
		mods = NopModifiers{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	vd := &VoxelData{
		cfg:              cfg,
		Generator:        gen,
		Stream:           stream,
		Modifiers:        mods,
		StreamingEnabled: streamingEnabled,
		log:              log,
	}
	vd.lodMaps = make([]*VoxelDataMap, cfg.LodCount)
	bounds := cfg.Bounds
	for lod := uint8(0); lod < cfg.LodCount; lod++ {
		vd.lodMaps[lod] = NewVoxelDataMap(lod, vd.cfg.BlockSize(), bounds)
		// Each higher LOD covers the same world volume with half as many
		// blocks along each axis.
		bounds = vxmath.Box3i{Min: bounds.Min.Shr(1), Max: shrCeil(bounds.Max)}
	}
	return vd
}

func shrCeil(v vxmath.Vec3i) vxmath.Vec3i {
	return vxmath.Vec3i{X: (v.X + 1) >> 1, Y: (v.Y + 1) >> 1, Z: (v.Z + 1) >> 1}
}

func (vd *VoxelData) Map(lod uint8) *VoxelDataMap { return vd.lodMaps[lod] }

func (vd *VoxelData) LodCount() uint8 { return vd.cfg.LodCount }

// worldToBlock converts a world-voxel position (expressed at LOD 0) to a
// block coordinate at the given LOD.
func (vd *VoxelData) worldToBlock(worldPos vxmath.Vec3i, lod uint8) vxmath.Vec3i {
	shift := vd.cfg.BlockSizePo2 + lod
	return vxmath.Vec3i{X: worldPos.X >> shift, Y: worldPos.Y >> shift, Z: worldPos.Z >> shift}
}

func (vd *VoxelData) blockToWorld(blockPos vxmath.Vec3i, lod uint8) vxmath.Vec3i {
	shift := vd.cfg.BlockSizePo2 + lod
	return blockPos.Shl(shift)
}

// ParentOf returns the parent block position at lod+1 covering childPos
// at lod, per the octree's constant-block-size mip relationship.
func ParentOf(childPos vxmath.Vec3i) vxmath.Vec3i { return childPos.Shr(1) }

// ChildrenOf returns the 8 child block positions at lod-1 under parentPos.
func ChildrenOf(parentPos vxmath.Vec3i) [8]vxmath.Vec3i {
	base := parentPos.Mul(2)
	var out [8]vxmath.Vec3i
	i := 0
	for dx := int32(0); dx < 2; dx++ {
		for dy := int32(0); dy < 2; dy++ {
			for dz := int32(0); dz < 2; dz++ {
				out[i] = base.Add(vxmath.Vec3i{X: dx, Y: dy, Z: dz})
				i++
			}
		}
	}
	return out
}

// generateBlock synthesizes a fresh buffer at pos/lod via the generator
// and modifier stack, deduping concurrent callers for the same block
// with singleflight so only one generation runs per key.
func (vd *VoxelData) generateBlock(pos vxmath.Vec3i, lod uint8) *voxelbuf.VoxelBuffer {
	key := fmt.Sprintf("%d:%d:%d:%d", lod, pos.X, pos.Y, pos.Z)
	v, _, _ := vd.sf.Do(key, func() (interface{}, error) {
		buf := voxelbuf.Create(vd.cfg.BlockSize())
		origin := vd.blockToWorld(pos, lod)
		if vd.Generator != nil {
			vd.Generator.Generate(buf, origin, lod)
		}
		vd.Modifiers.Apply(buf, origin, lod)
		return buf, nil
	})
	return v.(*voxelbuf.VoxelBuffer)
}

// EnsureBlock is the exported form of ensureBlock, used by the
// scheduler's gather stage to fault in an anchor block or neighbor on
// demand instead of treating a missing block as an error.
func (vd *VoxelData) EnsureBlock(pos vxmath.Vec3i, lod uint8) *DataBlock {
	return vd.ensureBlock(pos, lod)
}

// BlockSize returns the edge length of one block in voxels.
func (vd *VoxelData) BlockSize() int { return vd.cfg.BlockSize() }

// ensureBlock returns the resident block at pos/lod, loading from the
// stream (if streaming) or generating it (if not), inserting it into the
// map. It never returns nil.
func (vd *VoxelData) ensureBlock(pos vxmath.Vec3i, lod uint8) *DataBlock {
	m := vd.lodMaps[lod]
	if b, ok := m.Get(pos); ok {
		return b
	}
	var buf *voxelbuf.VoxelBuffer
	loadedFromStream := false
	if vd.StreamingEnabled && vd.Stream != nil {
		if b, ok, err := vd.Stream.LoadBlock(pos, lod); err == nil && ok {
			buf = b
			loadedFromStream = true
		}
	}
	if buf == nil {
		buf = vd.generateBlock(pos, lod)
	}
	block := NewDataBlock(buf)
	block.SetModified(false)
	var inserted *DataBlock
	m.TrySetBlockOrMerge(pos, block, func(existing *DataBlock) { inserted = existing })
	if inserted == nil {
		inserted = block
	}
	_ = loadedFromStream
	return inserted
}

// PreGenerateBox ensures every LOD-0 block overlapping box has an
// allocated buffer populated by the generator+modifiers, so edits have
// a concrete target.
func (vd *VoxelData) PreGenerateBox(box vxmath.Box3i) {
	minBlock := vd.worldToBlock(box.Min, 0)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), 0)
	for x := minBlock.X; x <= maxBlock.X; x++ {
		for y := minBlock.Y; y <= maxBlock.Y; y++ {
			for z := minBlock.Z; z <= maxBlock.Z; z++ {
				vd.ensureBlock(vxmath.Vec3i{X: x, Y: y, Z: z}, 0)
			}
		}
	}
}

// Copy gathers voxels from the LOD-0 map (synthesizing via
// generator+modifiers where streaming is disabled) into dst, anchored
// at min. Returns complete=false if any overlapping region was missing
// while streaming is enabled.
func (vd *VoxelData) Copy(min vxmath.Vec3i, dst *voxelbuf.VoxelBuffer, channels []voxelbuf.Channel) (complete bool, err error) {
	size := int32(dst.Size())
	box := vxmath.Box3i{Min: min, Max: min.Add(vxmath.Vec3i{X: size, Y: size, Z: size})}
	minBlock := vd.worldToBlock(box.Min, 0)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), 0)
	complete = true
	blockSize := int32(vd.cfg.BlockSize())
	for x := minBlock.X; x <= maxBlock.X; x++ {
		for y := minBlock.Y; y <= maxBlock.Y; y++ {
			for z := minBlock.Z; z <= maxBlock.Z; z++ {
				blockPos := vxmath.Vec3i{X: x, Y: y, Z: z}
				blockWorldOrigin := vd.blockToWorld(blockPos, 0)
				blockBox := vxmath.Box3i{Min: blockWorldOrigin, Max: blockWorldOrigin.Add(vxmath.Vec3i{X: blockSize, Y: blockSize, Z: blockSize})}

				m := vd.lodMaps[0]
				b, ok := m.Get(blockPos)
				var buf *voxelbuf.VoxelBuffer
				if ok {
					buf = b.Buffer
					b.RLock()
				} else if !vd.StreamingEnabled {
					buf = vd.generateBlock(blockPos, 0)
				} else {
					complete = false
					continue
				}

				srcMin := box.Min.Sub(blockWorldOrigin)
				if srcMin.X < 0 {
					srcMin.X = 0
				}
				clippedSrcBox, ok2 := blockBox.Clipped(box)
				if ok2 {
					localSrc := vxmath.Box3i{Min: clippedSrcBox.Min.Sub(blockWorldOrigin), Max: clippedSrcBox.Max.Sub(blockWorldOrigin)}
					dstOrigin := clippedSrcBox.Min.Sub(box.Min)
					if cerr := dst.CopyFrom(buf, localSrc, dstOrigin, channels); cerr != nil {
						err = cerr
					}
				}
				if ok {
					b.RUnlock()
				}
			}
		}
	}
	return complete, err
}

// Paste writes src into LOD 0 at min, on the given channels. If
// createNewBlocks is false, voxels landing in non-resident blocks are
// dropped silently (matching CopyFrom's clip-don't-fail contract).
// maskChannel/maskValue, when maskChannel is non-nil, skip source voxels
// equal to maskValue on that channel.
func (vd *VoxelData) Paste(min vxmath.Vec3i, src *voxelbuf.VoxelBuffer, channels []voxelbuf.Channel, createNewBlocks bool, maskChannel *voxelbuf.Channel, maskValue uint64) error {
	size := int32(src.Size())
	box := vxmath.Box3i{Min: min, Max: min.Add(vxmath.Vec3i{X: size, Y: size, Z: size})}
	minBlock := vd.worldToBlock(box.Min, 0)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), 0)
	blockSize := int32(vd.cfg.BlockSize())

	for x := minBlock.X; x <= maxBlock.X; x++ {
		for y := minBlock.Y; y <= maxBlock.Y; y++ {
			for z := minBlock.Z; z <= maxBlock.Z; z++ {
				blockPos := vxmath.Vec3i{X: x, Y: y, Z: z}
				blockWorldOrigin := vd.blockToWorld(blockPos, 0)
				blockBox := vxmath.Box3i{Min: blockWorldOrigin, Max: blockWorldOrigin.Add(vxmath.Vec3i{X: blockSize, Y: blockSize, Z: blockSize})}

				m := vd.lodMaps[0]
				var block *DataBlock
				if b, ok := m.Get(blockPos); ok {
					block = b
				} else if createNewBlocks {
					block = vd.ensureBlock(blockPos, 0)
				} else {
					continue
				}

				clipped, ok := blockBox.Clipped(box)
				if !ok {
					continue
				}
				localDst := vxmath.Box3i{Min: clipped.Min.Sub(blockWorldOrigin), Max: clipped.Max.Sub(blockWorldOrigin)}
				srcOrigin := clipped.Min.Sub(box.Min)

				block.Lock()
				if maskChannel == nil {
					_ = block.Buffer.CopyFrom(src, vxmath.Box3i{Min: srcOrigin, Max: srcOrigin.Add(localDst.Size())}, localDst.Min, channels)
				} else {
					_ = src.ReadWriteAction(*maskChannel, vxmath.Box3i{Min: srcOrigin, Max: srcOrigin.Add(localDst.Size())}, func(sx, sy, sz int, v uint64) uint64 {
						if v == maskValue {
							return v
						}
						dx := localDst.Min.X + int32(sx) - srcOrigin.X
						dy := localDst.Min.Y + int32(sy) - srcOrigin.Y
						dz := localDst.Min.Z + int32(sz) - srcOrigin.Z
						for _, c := range channels {
							sv, _ := src.Get(c, sx, sy, sz)
							_ = block.Buffer.Set(c, int(dx), int(dy), int(dz), sv)
						}
						return v
					})
				}
				block.SetEdited(true)
				block.SetModified(true)
				block.Unlock()
			}
		}
	}
	return nil
}

// MarkAreaModified flags all LOD-0 blocks overlapping box as edited and
// returns the list of affected block positions, to be handed to
// UpdateLods.
func (vd *VoxelData) MarkAreaModified(box vxmath.Box3i) []vxmath.Vec3i {
	minBlock := vd.worldToBlock(box.Min, 0)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), 0)
	var out []vxmath.Vec3i
	m := vd.lodMaps[0]
	for x := minBlock.X; x <= maxBlock.X; x++ {
		for y := minBlock.Y; y <= maxBlock.Y; y++ {
			for z := minBlock.Z; z <= maxBlock.Z; z++ {
				pos := vxmath.Vec3i{X: x, Y: y, Z: z}
				if b, ok := m.Get(pos); ok {
					b.SetEdited(true)
					b.SetModified(true)
					out = append(out, pos)
				}
			}
		}
	}
	return out
}

var mipChannels = []voxelbuf.Channel{voxelbuf.ChannelType, voxelbuf.ChannelSDF, voxelbuf.ChannelIndices, voxelbuf.ChannelWeights}

// UpdateLods runs the mip-propagation pass: downsampling each flagged
// LOD-0 block's values into its parent at each higher LOD, recursively
// marking the parents. For any LOD >= 1, an edited block's mip is the
// downsample of its eight LOD-below children if they are all present,
// else the generator-sampled value.
func (vd *VoxelData) UpdateLods(lod0Positions []vxmath.Vec3i) {
	current := uniquePositions(lod0Positions)
	for lod := uint8(1); lod < vd.cfg.LodCount; lod++ {
		parentSet := map[vxmath.Vec3i]bool{}
		for _, p := range current {
			parentSet[ParentOf(p)] = true
		}
		var parents []vxmath.Vec3i
		for p := range parentSet {
			parents = append(parents, p)
		}
		for _, parentPos := range parents {
			vd.updateOneMip(parentPos, lod)
		}
		current = parents
	}
}

func (vd *VoxelData) updateOneMip(parentPos vxmath.Vec3i, lod uint8) {
	children := ChildrenOf(parentPos)
	childMap := vd.lodMaps[lod-1]
	var childBlocks [8]*DataBlock
	allPresent := true
	for i, cp := range children {
		b, ok := childMap.Get(cp)
		if !ok {
			allPresent = false
			break
		}
		childBlocks[i] = b
	}

	parentMap := vd.lodMaps[lod]
	parentBlock, exists := parentMap.Get(parentPos)
	if !exists {
		buf := voxelbuf.Create(vd.cfg.BlockSize())
		parentBlock = NewDataBlock(buf)
		parentMap.TrySetBlockOrMerge(parentPos, parentBlock, func(existing *DataBlock) { parentBlock = existing })
	}

	if !allPresent {
		origin := vd.blockToWorld(parentPos, lod)
		buf := vd.generateBlock(parentPos, lod)
		parentBlock.Lock()
		parentBlock.Buffer = buf
		parentBlock.SetEdited(true)
		parentBlock.Unlock()
		_ = origin
		return
	}

	for _, b := range childBlocks {
		b.RLock()
	}
	parentBlock.Lock()
	downsampleInto(parentBlock.Buffer, childBlocks)
	parentBlock.SetEdited(true)
	parentBlock.Unlock()
	for _, b := range childBlocks {
		b.RUnlock()
	}
}

// downsampleInto box-filters the 8 children (each a full block of side
// S) into parent (also side S) by averaging 2x2x2 neighborhoods, so a
// higher-LOD block always reflects its children's current contents.
func downsampleInto(parent *voxelbuf.VoxelBuffer, children [8]*DataBlock) {
	size := parent.Size()
	half := size / 2
	for _, c := range mipChannels {
		for i, child := range children {
			ox, oy, oz := (i>>2)&1, (i>>1)&1, i&1
			for x := 0; x < half; x++ {
				for y := 0; y < half; y++ {
					for z := 0; z < half; z++ {
						sum := 0.0
						for dx := 0; dx < 2; dx++ {
							for dy := 0; dy < 2; dy++ {
								for dz := 0; dz < 2; dz++ {
									v, _ := child.Buffer.GetF(c, x*2+dx, y*2+dy, z*2+dz)
									sum += v
								}
							}
						}
						avg := sum / 8
						px := ox*half + x
						py := oy*half + y
						pz := oz*half + z
						if c == voxelbuf.ChannelType {
							// Nearest-neighbor for discrete ids: round instead
							// of blending types together.
							first, _ := child.Buffer.GetF(c, x*2, y*2, z*2)
							_ = parent.SetF(c, px, py, pz, first)
						} else {
							_ = parent.SetF(c, px, py, pz, avg)
						}
					}
				}
			}
		}
	}
}

func uniquePositions(in []vxmath.Vec3i) []vxmath.Vec3i {
	seen := map[vxmath.Vec3i]bool{}
	var out []vxmath.Vec3i
	for _, p := range in {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// HasBlocksWithVoxelsInAreaBroadMipTest quickly rejects large regions
// with no edits by inspecting the coarsest LOD only; a conservative
// over-approximation (false positives allowed, false negatives
// forbidden).
func (vd *VoxelData) HasBlocksWithVoxelsInAreaBroadMipTest(box vxmath.Box3i) bool {
	coarsest := vd.cfg.LodCount - 1
	minBlock := vd.worldToBlock(box.Min, coarsest)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), coarsest)
	m := vd.lodMaps[coarsest]
	found := false
	m.ForEachInBox(vxmath.Box3i{Min: minBlock, Max: maxBlock.Add(vxmath.Vec3i{X: 1, Y: 1, Z: 1})}, func(vxmath.Vec3i, *DataBlock) {
		found = true
	})
	return found
}

// IsAreaLoaded reports whether every LOD-0 block overlapping box is
// resident. With streaming disabled the generator always makes blocks
// available, so this always returns true in that mode.
func (vd *VoxelData) IsAreaLoaded(box vxmath.Box3i) bool {
	if !vd.StreamingEnabled {
		return true
	}
	minBlock := vd.worldToBlock(box.Min, 0)
	maxBlock := vd.worldToBlock(box.Max.Sub(vxmath.Vec3i{X: 1, Y: 1, Z: 1}), 0)
	m := vd.lodMaps[0]
	for x := minBlock.X; x <= maxBlock.X; x++ {
		for y := minBlock.Y; y <= maxBlock.Y; y++ {
			for z := minBlock.Z; z <= maxBlock.Z; z++ {
				if !m.Has(vxmath.Vec3i{X: x, Y: y, Z: z}) {
					return false
				}
			}
		}
	}
	return true
}
