package tensor

import "errors"

// Sentinel errors for the backend contract. Every operation returns one of
// these (possibly wrapped with operation context via fmt.Errorf and %w);
// callers match with errors.Is. Operations never panic on caller-triggered
// conditions; panics are reserved for internal invariant violations such as
// a typed accessor used against the wrong dtype.
var (
	// ErrShapeMismatch is returned when tensor shapes are incompatible for
	// the requested operation (non-broadcastable elementwise shapes,
	// matmul chain mismatch, create with wrong data length, non-square
	// input to pow/inverse). Always a programmer error, never retried.
	ErrShapeMismatch = errors.New("tensor: shape mismatch")

	// ErrIndexOutOfBounds is returned by slice and index operations when
	// an axis or range falls outside the tensor's shape.
	ErrIndexOutOfBounds = errors.New("tensor: index out of bounds")

	// ErrSingularMatrix is returned by Inverse when the matrix is not
	// invertible within the backend's numerical tolerance. It is
	// propagated as-is, never silently regularized.
	ErrSingularMatrix = errors.New("tensor: singular matrix")

	// ErrNotSymmetric is returned by Eig when the input violates the
	// symmetric/Hermitian precondition beyond tolerance. The contract
	// enforces the precondition rather than producing best-effort complex
	// output: spectral consumers rely on real, ascending eigenvalues.
	ErrNotSymmetric = errors.New("tensor: matrix is not symmetric")

	// ErrUnsupportedScalarType is returned when a backend is asked to
	// operate on a dtype it cannot represent (for example complex types
	// on the WebGPU backend). Through the dispatch engine this triggers a
	// fallback to the reference backend; when a backend is addressed
	// directly it surfaces to the caller.
	ErrUnsupportedScalarType = errors.New("tensor: unsupported scalar type")

	// ErrEigenFailed is returned when an eigen decomposition fails to
	// converge under the backend's tolerance. Rare in practice for
	// symmetric input; surfaced instead of returning partial spectra.
	ErrEigenFailed = errors.New("tensor: eigen decomposition failed")

	// ErrResourceExhausted is returned when a derived-structure build
	// (for example a Gamma basis table) would exceed its configured
	// dimension or memory ceiling.
	ErrResourceExhausted = errors.New("tensor: resource limit exceeded")
)
