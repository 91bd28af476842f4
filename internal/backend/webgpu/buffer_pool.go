package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// Buffer usage classes shared across the compute path.
const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// bufferClass buckets buffers by size so a tiny request never pins a
// large allocation.
type bufferClass int

const (
	smallBuffers bufferClass = iota
	mediumBuffers
	largeBuffers
	numBufferClasses
)

const (
	smallBufferLimit  = 4 << 10 // 4KB
	mediumBufferLimit = 1 << 20 // 1MB
	maxPooledPerClass = 64
)

func classify(size uint64) bufferClass {
	switch {
	case size < smallBufferLimit:
		return smallBuffers
	case size < mediumBufferLimit:
		return mediumBuffers
	default:
		return largeBuffers
	}
}

type pooledBuffer struct {
	buf   *wgpu.Buffer
	size  uint64
	usage wgpu.BufferUsage
}

// bufferPool recycles GPU buffers between operations. Result and staging
// buffers churn on every call; reusing them avoids a device allocation
// per operation.
type bufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	free [numBufferClasses][]pooledBuffer

	hits, misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{device: device}
}

// acquire returns a free buffer of at least size whose usage covers the
// request, or allocates a new one. Recycled buffers hold stale data;
// kernels must write every element they expose.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	class := classify(size)

	p.mu.Lock()
	for i, pb := range p.free[class] {
		if pb.size >= size && pb.usage&usage == usage {
			p.free[class] = append(p.free[class][:i], p.free[class][i+1:]...)
			p.hits++
			p.mu.Unlock()
			return pb.buf
		}
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// release returns a buffer to the pool, or frees it when the class is
// already full.
func (p *bufferPool) release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	class := classify(size)

	p.mu.Lock()
	if len(p.free[class]) < maxPooledPerClass {
		p.free[class] = append(p.free[class], pooledBuffer{buf: buf, size: size, usage: usage})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	buf.Release()
}

// clear frees every pooled buffer. Called on backend release.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.free {
		for _, pb := range p.free[c] {
			pb.buf.Release()
		}
		p.free[c] = nil
	}
}

// stats reports pool hits, misses and the number of free buffers held.
func (p *bufferPool) stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hits, misses = p.hits, p.misses
	for c := range p.free {
		pooled += len(p.free[c])
	}
	return hits, misses, pooled
}
