package procrustes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rotationColumns returns the first m columns of the 3×3 rotation about z.
func rotationColumns(theta float64, m int) *mat.Dense {
	c, s := math.Cos(theta), math.Sin(theta)
	full := mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
	return mat.DenseCopyOf(full.Slice(0, 3, 0, m))
}

func TestFit(t *testing.T) {
	t.Run("columns are orthonormal", func(t *testing.T) {
		data := mat.NewDense(3, 4, []float64{
			1, 2, 0, -1,
			0.5, -1, 3, 2,
			2, 2, -1, 0,
		})
		target := mat.NewDense(2, 4, []float64{
			1, 0, 1, 0,
			0, 1, 1, -1,
		})
		omega, err := Fit(data, target)
		require.NoError(t, err)

		var gram mat.Dense
		gram.Mul(omega.T(), omega)
		assert.True(t, mat.EqualApprox(&gram, mat.NewDiagDense(2, []float64{1, 1}), 1e-12))
	})

	t.Run("recovers an exact factorization", func(t *testing.T) {
		// data = Q·target for orthonormal Q, so the optimum reconstructs
		// the data exactly. Compare reconstructions, not columns; the
		// basis is only determined up to rotation in degenerate cases.
		q := rotationColumns(0.7, 2)
		target := mat.NewDense(2, 5, []float64{
			1, 2, 3, 4, 5,
			-1, 1, -1, 1, 0,
		})
		var data mat.Dense
		data.Mul(q, target)

		omega, err := Fit(&data, target)
		require.NoError(t, err)

		var recon mat.Dense
		recon.Mul(omega, target)
		assert.True(t, mat.EqualApprox(&data, &recon, 1e-10))
	})

	t.Run("zero rows in the target stay orthonormal", func(t *testing.T) {
		// The bottom block of the target can be all zeros (empty feature
		// case); the factorization must still yield orthonormal columns.
		data := mat.NewDense(3, 4, []float64{
			1, 2, 0, -1,
			0.5, -1, 3, 2,
			2, 2, -1, 0,
		})
		target := mat.NewDense(3, 4, []float64{
			1, 0, 1, 0,
			0, 1, 1, -1,
			0, 0, 0, 0,
		})
		omega, err := Fit(data, target)
		require.NoError(t, err)

		var gram mat.Dense
		gram.Mul(omega.T(), omega)
		assert.True(t, mat.EqualApprox(&gram, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-12))
	})
}
