package manifold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/romlab/manifold/internal/poly"
)

// curvedData samples a parabola-like curve through R³ so the linear
// projection leaves a residual for the polynomial correction to absorb.
func curvedData(k int) *mat.Dense {
	data := mat.NewDense(3, k, nil)
	for j := 0; j < k; j++ {
		x := -1 + 2*float64(j)/float64(k-1)
		data.Set(0, j, x)
		data.Set(1, j, 0.5*x)
		data.Set(2, j, x*x)
	}
	return data
}

func TestFitClosedForm(t *testing.T) {
	t.Run("coefficients match the explicit normal equations", func(t *testing.T) {
		for _, gamma := range []float64{0, 0.1} {
			l, err := New(WithDegree(3), WithRanks(1, 1), WithRidge(gamma))
			require.NoError(t, err)
			data := curvedData(9)

			m, err := l.FitClosedForm(data)
			require.NoError(t, err)
			require.NotNil(t, m.Coeffs)

			// Recompute Ξ = (V̄ᵀ·(C−V·Ŝ)·Polyᵀ)(Poly·Polyᵀ+γI)⁻¹ from the
			// model's own bases and coordinates, with a dense inverse.
			n, k := data.Dims()
			centered := mat.NewDense(n, k, nil)
			for i := 0; i < n; i++ {
				for j := 0; j < k; j++ {
					centered.Set(i, j, data.At(i, j)-m.Reference[i])
				}
			}
			feats := poly.Expand(m.Coords, 3)
			fr, _ := feats.Dims()

			var projErr mat.Dense
			projErr.Mul(m.Primary, m.Coords)
			projErr.Sub(centered, &projErr)

			var gram mat.Dense
			gram.Mul(feats, feats.T())
			for i := 0; i < fr; i++ {
				gram.Set(i, i, gram.At(i, i)+gamma)
			}
			var inv mat.Dense
			require.NoError(t, inv.Inverse(&gram))
			var want mat.Dense
			want.Product(m.Auxiliary.T(), &projErr, feats.T(), &inv)

			assert.True(t, mat.EqualApprox(m.Coeffs, &want, 1e-9), "gamma=%v", gamma)
		}
	})

	t.Run("correction improves on the linear projection", func(t *testing.T) {
		l, err := New(WithDegree(2), WithRanks(1, 1))
		require.NoError(t, err)
		data := curvedData(15)

		lin, err := l.FitLinear(data)
		require.NoError(t, err)
		closed, err := l.FitClosedForm(data)
		require.NoError(t, err)

		linErr := RelativeError(data, lin.Reconstruct(), lin.Reference)
		closedErr := RelativeError(data, closed.Reconstruct(), closed.Reference)
		assert.Less(t, closedErr, linErr)
	})

	t.Run("degree 1 leaves no coefficients", func(t *testing.T) {
		l, err := New(WithDegree(1), WithRanks(1, 1))
		require.NoError(t, err)
		m, err := l.FitClosedForm(curvedData(8))
		require.NoError(t, err)
		assert.Nil(t, m.Coeffs)
		assert.NotNil(t, m.Auxiliary)
	})

	t.Run("bases are jointly orthonormal", func(t *testing.T) {
		l, err := New(WithDegree(2), WithRanks(2, 1))
		require.NoError(t, err)
		m, err := l.FitClosedForm(curvedData(12))
		require.NoError(t, err)

		var cross mat.Dense
		cross.Mul(m.Primary.T(), m.Auxiliary)
		assert.InDelta(t, 0, mat.Norm(&cross, 2), 1e-10)
	})
}
