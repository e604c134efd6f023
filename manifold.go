// Package manifold learns low-dimensional polynomial manifold approximations
// of high-dimensional data for model-order reduction. A fitted model
// approximates each sample as
//
//	sample ≈ reference + V·x + V̄·Ξ·g(x)
//
// where x are the sample's reduced coordinates, V and V̄ are jointly
// orthonormal bases, Ξ is a coefficient matrix, and g stacks the elementwise
// powers 2..p of x.
//
// Three fits of increasing flexibility are provided:
//  1. FitLinear — proper orthogonal decomposition (POD), linear projection only.
//  2. FitClosedForm — fixed POD bases plus a one-shot ridge fit of Ξ.
//  3. Fit — alternating minimization that jointly refines the bases, the
//     coefficients, and the per-sample coordinates until convergence.
package manifold

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/romlab/manifold/internal/poly"
)

// Learner fits polynomial manifold models. Configure it with options at
// construction; a Learner is immutable afterwards and safe for concurrent use.
type Learner struct {
	degree  int
	rank    int
	auxRank int
	ridge   float64
	tol     float64
	maxIter int
	workers int
	nlsTol  float64
	nlsIter int
	ref     []float64
	log     zerolog.Logger
}

// New returns a Learner with the given options applied over the defaults:
// degree 2, ranks (1, 1), ridge 0, tolerance 1e-6, 100 outer iterations,
// sample solver at 1e-9 / 200 iterations, one worker per CPU, no logging.
func New(opts ...Option) (*Learner, error) {
	l := &Learner{
		degree:  2,
		rank:    1,
		auxRank: 1,
		tol:     1e-6,
		maxIter: 100,
		workers: runtime.NumCPU(),
		nlsTol:  1e-9,
		nlsIter: 200,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Fit learns a manifold model with the given options applied to a fresh
// Learner. This is a convenience wrapper around New and Learner.Fit.
func Fit(ctx context.Context, data *mat.Dense, opts ...Option) (*Model, error) {
	l, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return l.Fit(ctx, data)
}

// Status reports how a fit terminated.
type Status int

const (
	// StatusConverged means the energy change fell below the tolerance.
	StatusConverged Status = iota
	// StatusBudgetExhausted means the iteration budget ran out first. The
	// model holds the best state reached; callers decide acceptability.
	StatusBudgetExhausted
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusBudgetExhausted:
		return "budget exhausted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IterationStats is the per-iteration diagnostic record of an alternating fit.
type IterationStats struct {
	// Iteration counts outer iterations from 1.
	Iteration int
	// Energy is the fraction of centered-data energy captured by the
	// reconstruction; the convergence criterion watches its change.
	Energy float64
	// RelativeError is the relative Frobenius reconstruction error,
	// reported as a diagnostic alongside the energy.
	RelativeError float64
	// StalledSolves counts samples whose coordinate solve hit its internal
	// iteration cap; their best iterates were kept.
	StalledSolves int
	// FallbackSolve reports that the coefficient solve needed the
	// pseudo-inverse fallback, a sign of ill conditioning.
	FallbackSolve bool
}

// Model is a fitted polynomial manifold approximation.
type Model struct {
	// Reference is the length-n reference state subtracted before fitting.
	Reference []float64
	// Primary is the n×r primary basis V with orthonormal columns.
	Primary *mat.Dense
	// Auxiliary is the n×q auxiliary basis V̄, orthonormal and orthogonal
	// to Primary. Nil for the linear baseline.
	Auxiliary *mat.Dense
	// Coeffs is the q×((p−1)·r) coefficient matrix Ξ mapping polynomial
	// features into the auxiliary basis. Nil when the degree is below 2.
	Coeffs *mat.Dense
	// Coords is the r×k matrix of reduced coordinates, one column per sample.
	Coords *mat.Dense
	// Degree is the polynomial expansion degree used by the fit.
	Degree int
	// Status reports how the fit terminated; non-iterative fits converge
	// by construction.
	Status Status
	// Iterations is the number of outer iterations performed.
	Iterations int
	// Energy is the final captured energy fraction.
	Energy float64
	// History holds the per-iteration diagnostics of an alternating fit.
	History []IterationStats
}

// Reconstruct returns the n×k approximation
// reference·1ᵀ + V·Coords + V̄·Ξ·g(Coords).
func (m *Model) Reconstruct() *mat.Dense {
	n, _ := m.Primary.Dims()
	_, k := m.Coords.Dims()

	out := mat.NewDense(n, k, nil)
	out.Mul(m.Primary, m.Coords)
	if m.Auxiliary != nil && m.Coeffs != nil {
		feats := poly.Expand(m.Coords, m.Degree)
		var corr mat.Dense
		corr.Product(m.Auxiliary, m.Coeffs, feats)
		out.Add(out, &corr)
	}
	for i := 0; i < n; i++ {
		ref := m.Reference[i]
		for j := 0; j < k; j++ {
			out.Set(i, j, out.At(i, j)+ref)
		}
	}
	return out
}

// Lift maps one reduced-coordinate vector back to the ambient space.
func (m *Model) Lift(x []float64) []float64 {
	n, r := m.Primary.Dims()
	out := make([]float64, n)
	ov := mat.NewVecDense(n, out)
	ov.MulVec(m.Primary, mat.NewVecDense(r, x))
	if m.Auxiliary != nil && m.Coeffs != nil {
		g := poly.ExpandVec(nil, x, m.Degree)
		var corr mat.VecDense
		corr.MulVec(m.Coeffs, mat.NewVecDense(len(g), g))
		var amb mat.VecDense
		amb.MulVec(m.Auxiliary, &corr)
		ov.AddVec(ov, &amb)
	}
	for i := range out {
		out[i] += m.Reference[i]
	}
	return out
}

// center validates the data matrix and returns the reference state and the
// centered data. It fails fast on degenerate input: too few samples for the
// requested ranks, non-finite entries, or zero variance.
func (l *Learner) center(data *mat.Dense) (ref []float64, centered *mat.Dense, err error) {
	if data == nil {
		return nil, nil, fmt.Errorf("%w: nil data matrix", ErrDegenerateInput)
	}
	n, k := data.Dims()
	dims := l.rank + l.auxRank
	if k <= dims {
		return nil, nil, fmt.Errorf("%w: %d samples, need at least %d for ranks (%d, %d)",
			ErrDegenerateInput, k, dims+1, l.rank, l.auxRank)
	}
	if n < dims {
		return nil, nil, fmt.Errorf("%w: ambient dimension %d below combined rank %d",
			ErrDegenerateInput, n, dims)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			if v := data.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("%w: non-finite entry at (%d, %d)", ErrDegenerateInput, i, j)
			}
		}
	}

	ref = l.ref
	if ref == nil {
		ref = make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < k; j++ {
				sum += data.At(i, j)
			}
			ref[i] = sum / float64(k)
		}
	} else if len(ref) != n {
		return nil, nil, fmt.Errorf("%w: reference length %d, ambient dimension %d",
			ErrDegenerateInput, len(ref), n)
	}

	centered = mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			centered.Set(i, j, data.At(i, j)-ref[i])
		}
	}
	if mat.Norm(centered, 2) == 0 {
		return nil, nil, fmt.Errorf("%w: zero variance around the reference state", ErrDegenerateInput)
	}
	return ref, centered, nil
}
