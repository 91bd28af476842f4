package tensor

// Backend defines the contract every compute backend must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/reference: host-memory correctness baseline, all dtypes
//   - backend/webgpu: GPU execution via WebGPU compute shaders, float32
//
// Every operation is pure with respect to its tensor arguments: inputs are
// never mutated and a freshly allocated tensor is always returned. All
// operations block until the result is complete and safe to feed into the
// next operation, even when the implementation dispatches to asynchronous
// hardware queues. Errors are the sentinels from errors.go, possibly
// wrapped with operation context.
//
// Division by zero follows IEEE-754 on every backend (±Inf, NaN) instead of
// erroring; the reference backend replicates this so backend parity can be
// asserted bit-for-bit in semantics, not just within tolerance.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) (*RawTensor, error)
	Sub(a, b *RawTensor) (*RawTensor, error)
	Mul(a, b *RawTensor) (*RawTensor, error)
	Div(a, b *RawTensor) (*RawTensor, error)

	// Scalar operations. The scalar must be convertible to the tensor's
	// dtype; precision is never silently narrowed.
	AddScalar(x *RawTensor, scalar any) (*RawTensor, error)
	MulScalar(x *RawTensor, scalar any) (*RawTensor, error)

	// MatMul multiplies the trailing two dimensions with broadcasting over
	// leading (batch) dimensions. a.cols must equal b.rows.
	MatMul(a, b *RawTensor) (*RawTensor, error)

	// Pow raises square (optionally batched) matrices to a non-negative
	// integer power by repeated multiplication. k == 0 yields identity.
	Pow(x *RawTensor, k int) (*RawTensor, error)

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) (*RawTensor, error)
	Transpose(x *RawTensor, axes ...int) (*RawTensor, error)
	Slice(x *RawTensor, axis, start, end int) (*RawTensor, error)
	Concat(xs []*RawTensor, axis int) (*RawTensor, error)

	// Reductions.
	Sum(x *RawTensor) (*RawTensor, error)
	SumAxis(x *RawTensor, axis int, keepDim bool) (*RawTensor, error)

	// Linear algebra on the trailing two (square) dimensions.
	// Inverse fails with ErrSingularMatrix inside tolerance; Eig accepts
	// symmetric input only (ErrNotSymmetric otherwise) and returns
	// eigenvalues in ascending order with matching column eigenvectors.
	Inverse(x *RawTensor) (*RawTensor, error)
	Eig(x *RawTensor) (eigenvalues, eigenvectors *RawTensor, err error)

	// Explicit residency transfer. Upload moves host data into device
	// memory (identity on host backends); Download materializes device
	// results back into host memory. Both are costed, observable steps;
	// no contract operation performs a hidden transfer of its inputs.
	Upload(x *RawTensor) (*RawTensor, error)
	Download(x *RawTensor) (*RawTensor, error)

	// Supports reports whether the backend can execute operations on the
	// given scalar type. Dispatch uses this for its fallback override.
	Supports(dtype DataType) bool

	// Metadata.
	Name() string
	Device() Device
}
