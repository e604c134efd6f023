package manifold

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romlab/manifold/griddata"
)

func TestNewOptionValidation(t *testing.T) {
	test := []struct {
		name string
		opt  Option
	}{
		{"degree below 1", WithDegree(0)},
		{"zero rank", WithRanks(0, 1)},
		{"zero auxiliary rank", WithRanks(2, 0)},
		{"negative ridge", WithRidge(-1)},
		{"zero tolerance", WithTolerance(0)},
		{"zero budget", WithMaxIterations(0)},
		{"empty reference", WithReference(nil)},
		{"zero workers", WithWorkers(0)},
		{"bad sample solver", WithSampleSolver(0, 10)},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}

func TestModelLiftMatchesReconstruct(t *testing.T) {
	l, err := New(WithDegree(2), WithRanks(1, 1))
	require.NoError(t, err)
	m, err := l.FitClosedForm(curvedData(10))
	require.NoError(t, err)

	recon := m.Reconstruct()
	_, k := m.Coords.Dims()
	for j := 0; j < k; j += 3 {
		lifted := m.Lift([]float64{m.Coords.At(0, j)})
		for i, v := range lifted {
			assert.InDelta(t, recon.At(i, j), v, 1e-12)
		}
	}
}

// TestBenchmarkScenario is the end-to-end ordering check: each method's added
// flexibility must not worsen the fit on the sin(x)·cos(y) surface.
func TestBenchmarkScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full 41×41 benchmark")
	}
	data := griddata.Surface(func(x, y float64) float64 {
		return math.Sin(x) * math.Cos(y)
	}, 41, 41, 0, 4, 0, 4)

	l, err := New(
		WithDegree(3),
		WithRanks(2, 1),
		WithRidge(0),
		WithTolerance(1e-3),
		WithMaxIterations(100),
	)
	require.NoError(t, err)

	linear, err := l.FitLinear(data)
	require.NoError(t, err)
	closed, err := l.FitClosedForm(data)
	require.NoError(t, err)
	alt, err := l.Fit(context.Background(), data)
	require.NoError(t, err)
	assert.LessOrEqual(t, alt.Iterations, 100)

	linErr := RelativeError(data, linear.Reconstruct(), linear.Reference)
	closedErr := RelativeError(data, closed.Reconstruct(), closed.Reference)
	altErr := RelativeError(data, alt.Reconstruct(), alt.Reference)

	assert.Greater(t, linErr, closedErr, "polynomial correction must beat the linear projection")
	assert.GreaterOrEqual(t, closedErr, altErr-1e-12, "alternating refinement must not be worse")
	assert.Less(t, altErr, 1.0)
}

func TestFitConvenience(t *testing.T) {
	m, err := Fit(context.Background(), curvedData(12), WithDegree(2), WithRanks(1, 1))
	require.NoError(t, err)
	assert.NotNil(t, m.Primary)

	_, err = Fit(context.Background(), nil, WithDegree(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
}
