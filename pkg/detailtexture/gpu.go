// GPU detail-texture path: vertex/cell/triangle data staged into
// bucketed shader storage buffers and run through four compute
// pipeline stages in sequence. Modeled on the teacher's
// persistently-mapped buffer + fence-sync upload pattern in
// _examples/Leterax-go-voxels/pkg/render/chunkBufferManager.go, generalized from one
// fixed-size vertex buffer into the detail-texture engine's bucketed
// storage buffer pool (the same growth rule as the CPU BufferPool in
// pool.go, just backed by GPU storage instead of host memory).
package detailtexture

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"openglhelper"
)

// Stage names the four compute passes the GPU path dispatches, in
// order. Gather locates, per output texel, which mesh triangle a short
// ray toward the cell hits; Generate evaluates the implicit surface at
// that hit point; Normalmap differentiates it into a normal; Dilation
// fills texel cracks at tile borders where no ray hit.
type Stage int

const (
	StageGatherHits Stage = iota
	StageDetailGenerate
	StageDetailNormalmap
	StageDilation
)

func (s Stage) String() string {
	switch s {
	case StageGatherHits:
		return "gather-hits"
	case StageDetailGenerate:
		return "detail-generate"
	case StageDetailNormalmap:
		return "detail-normalmap"
	case StageDilation:
		return "dilation"
	default:
		return "unknown"
	}
}

// DispatchSequence is the fixed stage order the GPU path runs once
// per bake batch.
var DispatchSequence = [...]Stage{StageGatherHits, StageDetailGenerate, StageDetailNormalmap, StageDilation}

// GPUBuffer is one SSBO checked out of a GPUBucketPool.
type GPUBuffer struct {
	Object *openglhelper.BufferObject
	Len    int
	pool   *GPUBucketPool
	bucket int
}

func (b *GPUBuffer) Release() {
	if b.pool == nil {
		return
	}
	b.pool.release(b)
}

// GPUBucketPool is the GPU-resident counterpart of BufferPool: instead
// of reusing host byte slices, it reuses shader storage buffer objects
// sized into the same 48 growth buckets.
type GPUBucketPool struct {
	buckets [bucketCount][]*openglhelper.BufferObject
}

func NewGPUBucketPool() *GPUBucketPool {
	return &GPUBucketPool{}
}

// Acquire returns an SSBO of at least sizeInBytes, reusing a released
// buffer from the matching bucket before allocating a fresh one.
func (p *GPUBucketPool) Acquire(sizeInBytes int) *GPUBuffer {
	bucket, capacity := bucketFor(sizeInBytes)

	if free := p.buckets[bucket]; len(free) > 0 {
		obj := free[len(free)-1]
		p.buckets[bucket] = free[:len(free)-1]
		return &GPUBuffer{Object: obj, Len: sizeInBytes, pool: p, bucket: bucket}
	}

	obj := openglhelper.NewBufferObject(gl.SHADER_STORAGE_BUFFER, capacity, nil, openglhelper.DynamicCopy)
	return &GPUBuffer{Object: obj, Len: sizeInBytes, pool: p, bucket: bucket}
}

func (p *GPUBucketPool) release(b *GPUBuffer) {
	p.buckets[b.bucket] = append(p.buckets[b.bucket], b.Object)
	b.pool = nil
}

// Cleanup deletes every buffer still held in the pool's free lists.
// Buffers currently checked out by a caller are not touched.
func (p *GPUBucketPool) Cleanup() {
	for i := range p.buckets {
		for _, obj := range p.buckets[i] {
			obj.Delete()
		}
		p.buckets[i] = nil
	}
}

// ComputeProgram wraps a single compiled compute shader, bound and
// dispatched once per Stage.
type ComputeProgram struct {
	ID uint32
}

// NewComputeProgram compiles and links source as a GL_COMPUTE_SHADER
// stage. openglhelper only builds vertex/fragment pipelines, so the
// compute program path is self-contained here.
func NewComputeProgram(source string) (*ComputeProgram, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		return nil, fmt.Errorf("compute shader compile failed: %s", string(log))
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		return nil, fmt.Errorf("compute program link failed: %s", string(log))
	}

	return &ComputeProgram{ID: program}, nil
}

// Dispatch binds the program and runs groupsX*groupsY*groupsZ work
// groups, inserting a shader-storage barrier so the following stage
// observes this one's writes.
func (c *ComputeProgram) Dispatch(groupsX, groupsY, groupsZ uint32) {
	gl.UseProgram(c.ID)
	gl.DispatchCompute(groupsX, groupsY, groupsZ)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
}

func (c *ComputeProgram) Delete() {
	gl.DeleteProgram(c.ID)
}

// Pipeline holds the four compiled stage programs and the buffer pool
// they read from / write to.
type Pipeline struct {
	Pool     *GPUBucketPool
	Programs [len(DispatchSequence)]*ComputeProgram
}

// Run dispatches every stage in DispatchSequence over texelCount
// texels, 64 per work group.
func (p *Pipeline) Run(texelCount int) {
	groups := uint32((texelCount + 63) / 64)
	for i, stage := range DispatchSequence {
		prog := p.Programs[i]
		if prog == nil {
			continue
		}
		_ = stage
		prog.Dispatch(groups, 1, 1)
	}
}
