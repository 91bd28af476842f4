package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/causalml/substrate/internal/tensor"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a pooled staging buffer since storage buffers can't be mapped
// directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.pool.acquire(size, stagingUsage)
	defer b.pool.release(stagingBuffer, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()
	return result, nil
}

// inputBuffer returns the tensor's resident device buffer when one was
// attached by Upload, or creates a temporary one from host data. The
// cleanup function returns only temporaries to the pool.
func (b *Backend) inputBuffer(x *tensor.RawTensor) (*wgpu.Buffer, func()) {
	if db, ok := x.DeviceData().(*deviceBuffer); ok && db.buf != nil {
		return db.buf, func() {}
	}
	size := uint64(x.ByteSize()) //nolint:gosec // G115: ByteSize is non-negative
	buf := b.createBuffer(x.Data(), storageUsage)
	return buf, func() { b.pool.release(buf, size, storageUsage) }
}

// dispatch runs a compute pass over a prepared bind group and blocks until
// submission.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y, z uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(x, y, z)
	computePass.End()
	b.queue.Submit(encoder.Finish(nil))
}

// runBinaryOp executes an element-wise binary kernel over identically
// shaped float32 operands and reads the result back.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	numElements := a.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferA, releaseA := b.inputBuffer(a)
	defer releaseA()
	bufferOther, releaseOther := b.inputBuffer(other)
	defer releaseOther()

	//nolint:gosec // G115: ByteSize is non-negative
	resultSize := uint64(a.ByteSize())
	bufferResult := b.pool.acquire(resultSize, storageUsage)
	defer b.pool.release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements)) //nolint:gosec // G115: non-negative
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferOther, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runScalarOp executes a scalar kernel (x op s) over a float32 tensor.
func (b *Backend) runScalarOp(x *tensor.RawTensor, scalar float32, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	numElements := x.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferX, releaseX := b.inputBuffer(x)
	defer releaseX()

	//nolint:gosec // G115: ByteSize is non-negative
	resultSize := uint64(x.ByteSize())
	bufferResult := b.pool.acquire(resultSize, storageUsage)
	defer b.pool.release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements)) //nolint:gosec // G115: non-negative
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferX, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runBatchMatMul executes the batched matmul kernel for flattened operands
// a [batch, m, k] and bT [batch, k, n], producing [batch, m, n].
func (b *Backend) runBatchMatMul(a, other *tensor.RawTensor, batch, m, k, n int) (*tensor.RawTensor, error) {
	shader := b.compileShader("batch_matmul", batchMatMulShader)
	pipeline := b.getOrCreatePipeline("batch_matmul", shader)

	bufferA, releaseA := b.inputBuffer(a)
	defer releaseA()
	bufferOther, releaseOther := b.inputBuffer(other)
	defer releaseOther()

	resultSize := uint64(batch * m * n * 4) //nolint:gosec // G115: non-negative
	bufferResult := b.pool.acquire(resultSize, storageUsage)
	defer b.pool.release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(batch)) //nolint:gosec // G115: non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(m))     //nolint:gosec // G115: non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(k))    //nolint:gosec // G115: non-negative
	binary.LittleEndian.PutUint32(params[12:16], uint32(n))   //nolint:gosec // G115: non-negative
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	//nolint:gosec // G115: ByteSize is non-negative
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(a.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferOther, 0, uint64(other.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup counts are non-negative
	b.dispatch(pipeline, bindGroup,
		uint32((n+7)/8), uint32((m+7)/8), uint32(batch))

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(tensor.Shape{batch, m, n}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}
