package manifold

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RelativeError returns the relative Frobenius-norm reconstruction error
// ‖exact − recon‖_F / ‖exact − ref·1ᵀ‖_F. The result is NaN when the data
// has zero variance around the reference (the denominator vanishes, e.g. a
// single repeated sample); guard with k > 1 and non-constant data.
func RelativeError(exact, recon mat.Matrix, ref []float64) float64 {
	n, k := exact.Dims()

	var diff mat.Dense
	diff.Sub(exact, recon)
	num := mat.Norm(&diff, 2)

	centered := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			centered.Set(i, j, exact.At(i, j)-ref[i])
		}
	}
	den := mat.Norm(centered, 2)
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
