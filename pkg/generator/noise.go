package generator

import (
	"math"

	"github.com/leterax/voxelengine/pkg/voxelbuf"
	"github.com/leterax/voxelengine/pkg/vxmath"
)

// Noise generates an SDF heightfield from a value-noise field, computed
// with a self-contained hash lattice (see DESIGN.md for why this stays
// on a hand-rolled hash instead of a noise library).
type Noise struct {
	Seed       int64
	Frequency  float64
	Amplitude  float64
	HeightBias float64
}

func (n Noise) Generate(buf *voxelbuf.VoxelBuffer, origin vxmath.Vec3i, lod uint8) {
	size := buf.Size()
	spacing := float64(int64(1) << lod)
	for x := 0; x < size; x++ {
		wx := float64(origin.X) + float64(x)*spacing
		for z := 0; z < size; z++ {
			wz := float64(origin.Z) + float64(z)*spacing
			height := n.HeightBias + n.Amplitude*n.sample2D(wx*n.Frequency, wz*n.Frequency)
			for y := 0; y < size; y++ {
				wy := float64(origin.Y) + float64(y)*spacing
				_ = buf.SetF(voxelbuf.ChannelSDF, x, y, z, wy-height)
				if wy < height {
					_ = buf.Set(voxelbuf.ChannelType, x, y, z, 1)
				}
			}
		}
	}
}

// sample2D is a smoothed value-noise lattice: hash the 4 lattice
// corners around (x,z) and bilinearly interpolate with a smoothstep.
func (n Noise) sample2D(x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	fx := smoothstep(x - x0)
	fz := smoothstep(z - z0)

	v00 := n.hash(int64(x0), int64(z0))
	v10 := n.hash(int64(x0)+1, int64(z0))
	v01 := n.hash(int64(x0), int64(z0)+1)
	v11 := n.hash(int64(x0)+1, int64(z0)+1)

	a := lerp(v00, v10, fx)
	b := lerp(v01, v11, fx)
	return lerp(a, b, fz)
}

func (n Noise) hash(x, z int64) float64 {
	h := uint64(n.Seed)
	h = h*0x9E3779B97F4A7C15 + uint64(x)*0xBF58476D1CE4E5B9
	h ^= h >> 33
	h = h*0xC2B2AE3D27D4EB4F + uint64(z)*0x94D049BB133111EB
	h ^= h >> 29
	return 2.0*(float64(h>>11)/float64(1<<53)) - 1.0
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
