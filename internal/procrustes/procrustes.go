// Package procrustes solves the orthogonal Procrustes problem: find the matrix
// with orthonormal columns that best maps a target onto the data in the
// least-squares sense.
package procrustes

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrFactorization = errors.New("svd factorization failed")

// Fit returns the n×m matrix Ω with orthonormal columns minimizing
// ‖data − Ω·target‖_F, where data is n×k and target is m×k with m ≤ n.
// The closed form is Ω = U·Vᵀ for the thin SVD U·Σ·Vᵀ of data·targetᵀ.
// The solution is unique up to rotation only when data·targetᵀ is rank
// deficient; callers should compare reconstructions, not columns.
func Fit(data, target mat.Matrix) (*mat.Dense, error) {
	var cross mat.Dense
	cross.Mul(data, target.T())

	var svd mat.SVD
	if ok := svd.Factorize(&cross, mat.SVDThin); !ok {
		return nil, ErrFactorization
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var omega mat.Dense
	omega.Mul(&u, v.T())
	return &omega, nil
}
