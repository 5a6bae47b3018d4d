package region

import (
	"bytes"
	"fmt"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
)

// EncodeBlock serializes a VoxelBuffer to its on-wire block payload:
// per channel, a 1-byte compression tag (0=raw, 1=uniform) followed by
// either S^3*depth/8 raw bytes or depth/8 bytes. Channel count and
// order are fixed by protocol, not stored per block.
func EncodeBlock(buf *voxelbuf.VoxelBuffer) []byte {
	var out bytes.Buffer
	size := buf.Size()
	n := size * size * size
	for c := voxelbuf.Channel(0); c < voxelbuf.ChannelCount; c++ {
		compression, depth, uniformValue, raw := buf.ExportChannel(c)
		if compression == voxelbuf.CompressionUniform {
			out.WriteByte(1)
			writeLE(&out, uniformValue, depth.Bytes())
			continue
		}
		out.WriteByte(0)
		if raw != nil {
			out.Write(raw)
		} else {
			out.Write(make([]byte, n*depth.Bytes()))
		}
	}
	return out.Bytes()
}

// DecodeBlock reconstructs a VoxelBuffer of the given cubic size from
// its on-wire payload.
func DecodeBlock(data []byte, size int) (*voxelbuf.VoxelBuffer, error) {
	buf := voxelbuf.Create(size)
	n := size * size * size
	off := 0
	for c := voxelbuf.Channel(0); c < voxelbuf.ChannelCount; c++ {
		if off >= len(data) {
			return nil, fmt.Errorf("decode block channel %d: %w", c, ErrInvalidFormat)
		}
		tag := data[off]
		off++
		depth, err := buf.GetChannelDepth(c)
		if err != nil {
			return nil, err
		}
		if tag == 1 {
			w := depth.Bytes()
			if off+w > len(data) {
				return nil, fmt.Errorf("decode block channel %d uniform: %w", c, ErrInvalidFormat)
			}
			v := readLE(data[off:off+w], w)
			off += w
			buf.ImportChannel(c, voxelbuf.CompressionUniform, depth, v, nil)
			continue
		}
		w := n * depth.Bytes()
		if off+w > len(data) {
			return nil, fmt.Errorf("decode block channel %d raw: %w", c, ErrInvalidFormat)
		}
		raw := make([]byte, w)
		copy(raw, data[off:off+w])
		off += w
		buf.ImportChannel(c, voxelbuf.CompressionNone, depth, 0, raw)
	}
	return buf, nil
}

func writeLE(out *bytes.Buffer, v uint64, nbytes int) {
	b := make([]byte, nbytes)
	for i := 0; i < nbytes; i++ {
		b[i] = byte(v >> (8 * i))
	}
	out.Write(b)
}

func readLE(b []byte, nbytes int) uint64 {
	var v uint64
	for i := 0; i < nbytes; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
