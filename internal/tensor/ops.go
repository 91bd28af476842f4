package tensor

// Typed convenience wrappers over the backend contract. Each delegates to
// the tensor's backend and re-wraps the resulting RawTensor; errors pass
// through untouched so sentinel matching keeps working.

func (t *Tensor[T, B]) wrap(raw *RawTensor, err error) (*Tensor[T, B], error) {
	if err != nil {
		return nil, err
	}
	return New[T, B](raw, t.backend), nil
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div performs element-wise division with broadcasting.
// Division by zero follows IEEE-754 (±Inf, NaN).
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// MatMul performs (batched) matrix multiplication.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// Pow raises a square matrix to a non-negative integer power.
func (t *Tensor[T, B]) Pow(k int) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Pow(t.raw, k))
}

// Slice extracts the half-open range [start, end) along axis.
func (t *Tensor[T, B]) Slice(axis, start, end int) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Slice(t.raw, axis, start, end))
}

// Reshape returns a tensor with the same data and a new shape.
func (t *Tensor[T, B]) Reshape(shape Shape) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Reshape(t.raw, shape))
}

// Transpose permutes the tensor's dimensions.
func (t *Tensor[T, B]) Transpose(axes ...int) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// Sum reduces the tensor to a scalar.
func (t *Tensor[T, B]) Sum() (*Tensor[T, B], error) {
	return t.wrap(t.backend.Sum(t.raw))
}

// SumAxis sums along a single axis.
func (t *Tensor[T, B]) SumAxis(axis int, keepDim bool) (*Tensor[T, B], error) {
	return t.wrap(t.backend.SumAxis(t.raw, axis, keepDim))
}

// Inverse inverts the trailing square matrix.
func (t *Tensor[T, B]) Inverse() (*Tensor[T, B], error) {
	return t.wrap(t.backend.Inverse(t.raw))
}

// Eig decomposes a symmetric matrix into ascending eigenvalues and column
// eigenvectors.
func (t *Tensor[T, B]) Eig() (*Tensor[T, B], *Tensor[T, B], error) {
	vals, vecs, err := t.backend.Eig(t.raw)
	if err != nil {
		return nil, nil, err
	}
	return New[T, B](vals, t.backend), New[T, B](vecs, t.backend), nil
}

// Upload moves the tensor's data into device memory.
func (t *Tensor[T, B]) Upload() (*Tensor[T, B], error) {
	return t.wrap(t.backend.Upload(t.raw))
}

// Download materializes device results back into host memory.
func (t *Tensor[T, B]) Download() (*Tensor[T, B], error) {
	return t.wrap(t.backend.Download(t.raw))
}
