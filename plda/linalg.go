package plda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// inverse computes the inverse of a square matrix, mapping gonum failures
// onto the library error taxonomy. Failures are propagated, never patched
// with automatic regularization.
func inverse(a mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, errors.NewModelError("inverse", "singular or ill-conditioned matrix", err)
	}
	return &inv, nil
}

// logDet computes log(det(A)) via Cholesky factorization. A must be
// symmetric positive definite; round-off asymmetry is absorbed by
// symmetrizing before the factorization.
func logDet(a *mat.Dense) (float64, error) {
	r, c := a.Dims()
	if r != c {
		return 0, errors.NewValueError("logDet", "matrix must be square")
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return 0, errors.NewModelError("logDet", "cholesky factorization failed", errors.ErrSingularMatrix)
	}
	return chol.LogDet(), nil
}

// identity returns the n-by-n identity matrix.
func identity(n int) *mat.Dense {
	eye := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		eye.Set(i, i, 1)
	}
	return eye
}
