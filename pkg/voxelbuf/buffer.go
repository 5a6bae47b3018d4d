// Package voxelbuf implements VoxelBuffer: a fixed-size cube of
// per-channel voxel samples with uniform compression: a channel whose
// samples all share one value stores only that value. There is no
// run-length encoding; a non-uniform channel stores every sample. It
// generalizes a flat-array chunk's single block-type slice to multiple
// typed channels.
package voxelbuf

import (
	"encoding/binary"
	"fmt"

	"github.com/leterax/voxelengine/pkg/vxmath"
)

type channelData struct {
	depth        Depth
	compression  Compression
	defaultValue uint64
	uniformValue uint64
	raw          []byte // nil when compression == CompressionUniform
}

// VoxelBuffer is a cube of shape size^3 storing up to ChannelCount
// channels. Buffers own their bytes; Clone copies by default.
type VoxelBuffer struct {
	size     int
	channels [ChannelCount]channelData
	metadata map[vxmath.Vec3i]any
}

// Create builds a new buffer of the given cubic size with every channel
// uniformly compressed to its default value, matching the invariant that
// freshly generated buffers allocate no per-voxel storage until written.
func Create(size int) *VoxelBuffer {
	b := &VoxelBuffer{size: size}
	for c := Channel(0); c < ChannelCount; c++ {
		b.channels[c] = channelData{
			depth:        defaultDepths[c],
			compression:  CompressionUniform,
			defaultValue: defaultValues[c],
			uniformValue: defaultValues[c],
		}
	}
	return b
}

func (b *VoxelBuffer) Size() int { return b.size }

func (b *VoxelBuffer) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < b.size && y < b.size && z < b.size
}

func (b *VoxelBuffer) index(x, y, z int) int {
	return (x*b.size+y)*b.size + z
}

// GetChannelDepth returns the current bit depth of a channel.
func (b *VoxelBuffer) GetChannelDepth(c Channel) (Depth, error) {
	if c < 0 || c >= ChannelCount {
		return 0, fmt.Errorf("get channel depth %d: %w", c, ErrInvalidChannel)
	}
	return b.channels[c].depth, nil
}

// SetChannelDepth changes the channel's bit depth, re-encoding any
// existing raw data. Uniform channels simply keep their scalar.
func (b *VoxelBuffer) SetChannelDepth(c Channel, depth Depth) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("set channel depth %d: %w", c, ErrInvalidChannel)
	}
	if depth > Depth64 {
		return fmt.Errorf("set channel depth %d to %d: %w", c, depth, ErrInvalidDepth)
	}
	ch := &b.channels[c]
	if ch.compression == CompressionUniform {
		ch.depth = depth
		return nil
	}
	// Re-encode raw storage at the new depth.
	old := ch.raw
	oldDepth := ch.depth
	ch.depth = depth
	ch.raw = make([]byte, b.size*b.size*b.size*depth.Bytes())
	n := b.size * b.size * b.size
	for i := 0; i < n; i++ {
		v := decodeAt(old, i, oldDepth)
		encodeAt(ch.raw, i, depth, v)
	}
	return nil
}

func decodeAt(raw []byte, i int, depth Depth) uint64 {
	n := depth.Bytes()
	off := i * n
	switch depth {
	case Depth8:
		return uint64(raw[off])
	case Depth16:
		return uint64(binary.LittleEndian.Uint16(raw[off : off+2]))
	case Depth32:
		return uint64(binary.LittleEndian.Uint32(raw[off : off+4]))
	case Depth64:
		return binary.LittleEndian.Uint64(raw[off : off+8])
	default:
		return 0
	}
}

func encodeAt(raw []byte, i int, depth Depth, v uint64) {
	n := depth.Bytes()
	off := i * n
	switch depth {
	case Depth8:
		raw[off] = byte(v)
	case Depth16:
		binary.LittleEndian.PutUint16(raw[off:off+2], uint16(v))
	case Depth32:
		binary.LittleEndian.PutUint32(raw[off:off+4], uint32(v))
	case Depth64:
		binary.LittleEndian.PutUint64(raw[off:off+8], v)
	}
}

// decompressChannelIfNeeded lazily decodes a uniform channel to raw
// storage, satisfying "setting a single voxel on a uniform channel
// decompresses it lazily".
func (b *VoxelBuffer) decompressChannelIfNeeded(c Channel) {
	ch := &b.channels[c]
	if ch.compression == CompressionNone {
		return
	}
	n := b.size * b.size * b.size
	ch.raw = make([]byte, n*ch.depth.Bytes())
	for i := 0; i < n; i++ {
		encodeAt(ch.raw, i, ch.depth, ch.uniformValue)
	}
	ch.compression = CompressionNone
}

// DecompressChannel forces a channel out of uniform compression,
// allocating full storage even if every voxel still shares one value.
func (b *VoxelBuffer) DecompressChannel(c Channel) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("decompress channel %d: %w", c, ErrInvalidChannel)
	}
	b.decompressChannelIfNeeded(c)
	return nil
}

// Get returns the raw encoded value of a voxel on a channel. Decoding a
// uniform channel at any position returns its scalar without allocation.
func (b *VoxelBuffer) Get(c Channel, x, y, z int) (uint64, error) {
	if c < 0 || c >= ChannelCount {
		return 0, fmt.Errorf("get channel %d: %w", c, ErrInvalidChannel)
	}
	if !b.inBounds(x, y, z) {
		return 0, fmt.Errorf("get(%d,%d,%d): %w", x, y, z, ErrBoundsViolation)
	}
	ch := &b.channels[c]
	if ch.compression == CompressionUniform {
		return ch.uniformValue, nil
	}
	return decodeAt(ch.raw, b.index(x, y, z), ch.depth), nil
}

// Set writes a single voxel. Uniform channels are decompressed lazily
// unless the written value equals the existing uniform scalar.
func (b *VoxelBuffer) Set(c Channel, x, y, z int, value uint64) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("set channel %d: %w", c, ErrInvalidChannel)
	}
	if !b.inBounds(x, y, z) {
		return fmt.Errorf("set(%d,%d,%d): %w", x, y, z, ErrBoundsViolation)
	}
	ch := &b.channels[c]
	if ch.compression == CompressionUniform {
		if ch.uniformValue == value {
			return nil
		}
		b.decompressChannelIfNeeded(c)
	}
	encodeAt(ch.raw, b.index(x, y, z), ch.depth, value)
	return nil
}

// GetF reads a voxel as a float, applying the channel's quantization
// (only the SDF channel is quantized; others pass the raw value through).
func (b *VoxelBuffer) GetF(c Channel, x, y, z int) (float64, error) {
	raw, err := b.Get(c, x, y, z)
	if err != nil {
		return 0, err
	}
	depth := b.channels[c].depth
	if c == ChannelSDF {
		return decodeSDF(raw, depth), nil
	}
	return float64(raw), nil
}

// SetF writes a voxel from a float, applying the channel's quantization.
func (b *VoxelBuffer) SetF(c Channel, x, y, z int, value float64) error {
	depth := b.channels[c].depth
	var raw uint64
	if c == ChannelSDF {
		raw = encodeSDF(value, depth)
	} else {
		raw = uint64(value)
	}
	return b.Set(c, x, y, z, raw)
}

// ClearChannel sets every voxel on a channel back to a single uniform
// value, releasing any raw storage.
func (b *VoxelBuffer) ClearChannel(c Channel, value uint64) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("clear channel %d: %w", c, ErrInvalidChannel)
	}
	ch := &b.channels[c]
	ch.compression = CompressionUniform
	ch.uniformValue = value
	ch.raw = nil
	return nil
}

// CompressUniformChannels scans every channel and collapses it back to
// uniform compression if every sample currently holds the same value.
// This must be semantically transparent: readers never observe a change
// in sample values.
func (b *VoxelBuffer) CompressUniformChannels() {
	n := b.size * b.size * b.size
	for c := Channel(0); c < ChannelCount; c++ {
		ch := &b.channels[c]
		if ch.compression == CompressionUniform || n == 0 {
			continue
		}
		first := decodeAt(ch.raw, 0, ch.depth)
		uniform := true
		for i := 1; i < n; i++ {
			if decodeAt(ch.raw, i, ch.depth) != first {
				uniform = false
				break
			}
		}
		if uniform {
			ch.compression = CompressionUniform
			ch.uniformValue = first
			ch.raw = nil
		}
	}
}

// FillArea sets every voxel inside box (clipped to buffer bounds) on a
// channel to value.
func (b *VoxelBuffer) FillArea(c Channel, box vxmath.Box3i, value uint64) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("fill area channel %d: %w", c, ErrInvalidChannel)
	}
	full := vxmath.Box3i{Min: vxmath.Vec3i{}, Max: vxmath.Vec3i{X: int32(b.size), Y: int32(b.size), Z: int32(b.size)}}
	clipped, ok := box.Clipped(full)
	if !ok {
		return nil
	}
	if clipped == full {
		return b.ClearChannel(c, value)
	}
	b.decompressChannelIfNeeded(c)
	ch := &b.channels[c]
	for x := clipped.Min.X; x < clipped.Max.X; x++ {
		for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
			for z := clipped.Min.Z; z < clipped.Max.Z; z++ {
				encodeAt(ch.raw, b.index(int(x), int(y), int(z)), ch.depth, value)
			}
		}
	}
	return nil
}

// CopyFrom copies voxels from other's srcBox into this buffer at
// dstOrigin, on the given channels. It is bounds-checked and silently
// clips; it never reallocates the destination.
func (b *VoxelBuffer) CopyFrom(other *VoxelBuffer, srcBox vxmath.Box3i, dstOrigin vxmath.Vec3i, channels []Channel) error {
	srcFull := vxmath.Box3i{Max: vxmath.Vec3i{X: int32(other.size), Y: int32(other.size), Z: int32(other.size)}}
	clippedSrc, ok := srcBox.Clipped(srcFull)
	if !ok {
		return nil
	}
	size := clippedSrc.Size()
	// srcBox.Min maps to dstOrigin, so trimming the source's min corner
	// shifts the destination by the same amount.
	dstOrigin = dstOrigin.Add(clippedSrc.Min.Sub(srcBox.Min))
	dstFull := vxmath.Box3i{Max: vxmath.Vec3i{X: int32(b.size), Y: int32(b.size), Z: int32(b.size)}}
	dstBox := vxmath.Box3i{Min: dstOrigin, Max: dstOrigin.Add(size)}
	clippedDst, ok := dstBox.Clipped(dstFull)
	if !ok {
		return nil
	}
	// Re-derive the matching source box in case the destination clip
	// shrank the region further than the source clip did.
	shrink := clippedDst.Size()
	srcMin := clippedSrc.Min.Add(clippedDst.Min.Sub(dstBox.Min))
	for _, c := range channels {
		if c < 0 || c >= ChannelCount {
			return fmt.Errorf("copy_from channel %d: %w", c, ErrInvalidChannel)
		}
		for dx := int32(0); dx < shrink.X; dx++ {
			for dy := int32(0); dy < shrink.Y; dy++ {
				for dz := int32(0); dz < shrink.Z; dz++ {
					sx := int(srcMin.X + dx)
					sy := int(srcMin.Y + dy)
					sz := int(srcMin.Z + dz)
					v, err := other.Get(c, sx, sy, sz)
					if err != nil {
						return err
					}
					dxp := int(clippedDst.Min.X + dx)
					dyp := int(clippedDst.Min.Y + dy)
					dzp := int(clippedDst.Min.Z + dz)
					if err := b.Set(c, dxp, dyp, dzp, v); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// ReadWriteAction takes a caller closure invoked once per voxel inside
// box, amortizing per-voxel dispatch for bulk edits. fn receives and
// returns the raw encoded value.
func (b *VoxelBuffer) ReadWriteAction(c Channel, box vxmath.Box3i, fn func(x, y, z int, value uint64) uint64) error {
	if c < 0 || c >= ChannelCount {
		return fmt.Errorf("read_write_action channel %d: %w", c, ErrInvalidChannel)
	}
	full := vxmath.Box3i{Max: vxmath.Vec3i{X: int32(b.size), Y: int32(b.size), Z: int32(b.size)}}
	clipped, ok := box.Clipped(full)
	if !ok {
		return nil
	}
	b.decompressChannelIfNeeded(c)
	ch := &b.channels[c]
	for x := clipped.Min.X; x < clipped.Max.X; x++ {
		for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
			for z := clipped.Min.Z; z < clipped.Max.Z; z++ {
				i := b.index(int(x), int(y), int(z))
				v := decodeAt(ch.raw, i, ch.depth)
				nv := fn(int(x), int(y), int(z), v)
				if nv != v {
					encodeAt(ch.raw, i, ch.depth, nv)
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the buffer, including metadata.
func (b *VoxelBuffer) Clone() *VoxelBuffer {
	nb := &VoxelBuffer{size: b.size}
	for c := Channel(0); c < ChannelCount; c++ {
		ch := b.channels[c]
		nch := channelData{depth: ch.depth, compression: ch.compression, defaultValue: ch.defaultValue, uniformValue: ch.uniformValue}
		if ch.raw != nil {
			nch.raw = make([]byte, len(ch.raw))
			copy(nch.raw, ch.raw)
		}
		nb.channels[c] = nch
	}
	if b.metadata != nil {
		nb.metadata = make(map[vxmath.Vec3i]any, len(b.metadata))
		for k, v := range b.metadata {
			nb.metadata[k] = v
		}
	}
	return nb
}

// SetMetadata attaches arbitrary caller data to a position within the
// buffer. Metadata is a sparse map; most positions have none.
func (b *VoxelBuffer) SetMetadata(p vxmath.Vec3i, v any) {
	if b.metadata == nil {
		b.metadata = make(map[vxmath.Vec3i]any)
	}
	b.metadata[p] = v
}

func (b *VoxelBuffer) GetMetadata(p vxmath.Vec3i) (any, bool) {
	if b.metadata == nil {
		return nil, false
	}
	v, ok := b.metadata[p]
	return v, ok
}

// ExportChannel exposes a channel's raw storage for serialization
// (pkg/region's on-wire codec). raw is nil when the channel is
// uniformly compressed.
func (b *VoxelBuffer) ExportChannel(c Channel) (compression Compression, depth Depth, uniformValue uint64, raw []byte) {
	ch := &b.channels[c]
	return ch.compression, ch.depth, ch.uniformValue, ch.raw
}

// ImportChannel replaces a channel's storage wholesale, used when
// decoding a buffer read back from a region file.
func (b *VoxelBuffer) ImportChannel(c Channel, compression Compression, depth Depth, uniformValue uint64, raw []byte) {
	b.channels[c] = channelData{
		depth:        depth,
		compression:  compression,
		defaultValue: defaultValues[c],
		uniformValue: uniformValue,
		raw:          raw,
	}
}
