// Package nls solves the per-sample reduced-coordinate problem: find the
// coordinates x minimizing the reconstruction residual
//
//	‖target − Linear·x − Nonlinear·g(x)‖₂²
//
// where g stacks the elementwise powers 2..Degree of x. Each sample is an
// independent small problem, so Solver is stateless and safe to share across
// goroutines.
package nls

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/romlab/manifold/internal/poly"
)

// Solver holds the read-only snapshot of the model fixed during one
// coordinate-update sweep.
type Solver struct {
	// Linear is the n×r primary basis V.
	Linear *mat.Dense
	// Nonlinear is V̄·Ξ, n×((Degree−1)·r). Nil means no polynomial
	// correction: the problem is linear and solved in closed form.
	Nonlinear *mat.Dense
	// Degree is the polynomial expansion degree.
	Degree int
	// Tol is the gradient-norm tolerance.
	Tol float64
	// MaxIter caps the solver's internal iterations.
	MaxIter int
}

// Solve minimizes the residual for one centered sample starting from init.
// It returns the best coordinates found and whether the tolerance was met
// before the iteration cap; on a stalled solve the best iterate is still
// returned. init is not modified.
func (s *Solver) Solve(target, init []float64) ([]float64, bool) {
	_, r := s.Linear.Dims()
	if s.Nonlinear == nil {
		// Orthonormal columns make the linear projection exact.
		x := make([]float64, r)
		xv := mat.NewVecDense(r, x)
		xv.MulVec(s.Linear.T(), mat.NewVecDense(len(target), target))
		return x, true
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			res := s.residual(target, x)
			return floats.Dot(res, res)
		},
		Grad: func(grad, x []float64) {
			s.gradient(grad, target, x)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: s.Tol,
		MajorIterations:   s.MaxIter,
	}

	x0 := make([]float64, r)
	copy(x0, init)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if result == nil {
		return x0, false
	}
	ok := err == nil && converged(result.Status)
	return result.X, ok
}

func converged(st optimize.Status) bool {
	switch st {
	case optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// residual returns target − Linear·x − Nonlinear·g(x).
func (s *Solver) residual(target, x []float64) []float64 {
	n, r := s.Linear.Dims()
	res := make([]float64, n)
	rv := mat.NewVecDense(n, res)
	rv.MulVec(s.Linear, mat.NewVecDense(r, x))

	g := poly.ExpandVec(nil, x, s.Degree)
	var nl mat.VecDense
	nl.MulVec(s.Nonlinear, mat.NewVecDense(len(g), g))
	for i := range res {
		res[i] = target[i] - res[i] - nl.AtVec(i)
	}
	return res
}

// gradient fills grad with ∇‖res‖² = −2·(Vᵀ·res + Jᵀ·(V̄Ξ)ᵀ·res), using the
// block-diagonal structure of the expansion Jacobian J.
func (s *Solver) gradient(grad, target, x []float64) {
	n, r := s.Linear.Dims()
	res := s.residual(target, x)
	rv := mat.NewVecDense(n, res)

	var vt mat.VecDense
	vt.MulVec(s.Linear.T(), rv)
	var wt mat.VecDense
	wt.MulVec(s.Nonlinear.T(), rv)

	for i := 0; i < r; i++ {
		jt := 0.0
		pw := 1.0
		for d := 2; d <= s.Degree; d++ {
			pw *= x[i]
			jt += float64(d) * pw * wt.AtVec((d-2)*r+i)
		}
		grad[i] = -2 * (vt.AtVec(i) + jt)
	}
}
