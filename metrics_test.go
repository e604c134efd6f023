package manifold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestRelativeError(t *testing.T) {
	exact := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	ref := []float64{2, 5}

	t.Run("exact reconstruction", func(t *testing.T) {
		assert.Zero(t, RelativeError(exact, exact, ref))
	})

	t.Run("known residual", func(t *testing.T) {
		recon := mat.NewDense(2, 3, []float64{
			1, 2, 3,
			4, 5, 8,
		})
		// ‖E−R‖_F = 2, ‖E−ref·1ᵀ‖_F = 2.
		assert.InDelta(t, 1.0, RelativeError(exact, recon, ref), 1e-14)
	})

	t.Run("zero variance yields NaN", func(t *testing.T) {
		constant := mat.NewDense(2, 3, []float64{
			2, 2, 2,
			5, 5, 5,
		})
		got := RelativeError(constant, exact, ref)
		assert.True(t, math.IsNaN(got))
	})
}
