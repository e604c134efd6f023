// Package ridge solves the ridge-regularized normal equations that fit a
// coefficient matrix mapping polynomial features onto projected residuals:
//
//	Ξ · (F·Fᵀ + γI) = R·Fᵀ
//
// where F is the feature matrix and R the residual matrix, columnwise over
// samples.
package ridge

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrSingular = errors.New("normal equations are singular")

// rcond scales the largest singular value into the cutoff below which a
// singular value is treated as zero in the pseudo-inverse fallback.
const rcond = 1e-14

// Solve returns the q×m coefficient matrix Ξ minimizing
// ‖R − Ξ·F‖_F² + γ‖Ξ‖_F², given the q×k residuals and m×k features.
// The symmetric system is solved by Cholesky factorization; when the Gram
// matrix is not positive definite (γ = 0 with rank-deficient features) it
// falls back to a pseudo-inverse and reports fallback = true so the caller
// can surface the conditioning problem. ErrSingular is returned only when
// even the fallback factorization fails.
func Solve(resid, feats *mat.Dense, gamma float64) (xi *mat.Dense, fallback bool, err error) {
	q, k := resid.Dims()
	m, kf := feats.Dims()
	if k != kf {
		panic("ridge: sample count mismatch")
	}

	var gram mat.SymDense
	gram.SymOuterK(1, feats)
	for i := 0; i < m; i++ {
		gram.SetSym(i, i, gram.At(i, i)+gamma)
	}

	// Right-hand side of the transposed system Gram·Ξᵀ = F·Rᵀ.
	var rhs mat.Dense
	rhs.Mul(feats, resid.T())

	var xit mat.Dense
	var chol mat.Cholesky
	if chol.Factorize(&gram) {
		if err := chol.SolveTo(&xit, &rhs); err == nil {
			xi = mat.NewDense(q, m, nil)
			xi.Copy(xit.T())
			return xi, false, nil
		}
	}

	xit, err = pinvSolve(&gram, &rhs)
	if err != nil {
		return nil, true, err
	}
	xi = mat.NewDense(q, m, nil)
	xi.Copy(xit.T())
	return xi, true, nil
}

// pinvSolve computes pinv(a)·b through the SVD of a, zeroing singular values
// below rcond·σ_max.
func pinvSolve(a mat.Symmetric, b mat.Matrix) (mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return mat.Dense{}, ErrSingular
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 {
		return mat.Dense{}, ErrSingular
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := rcond * s[0]
	n := len(s)
	inv := mat.NewDense(n, n, nil)
	for i, sv := range s {
		if sv > cutoff {
			inv.Set(i, i, 1/sv)
		}
	}

	var pinv, out mat.Dense
	pinv.Product(&v, inv, u.T())
	out.Mul(&pinv, b)
	return out, nil
}
