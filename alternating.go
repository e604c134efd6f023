package manifold

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/romlab/manifold/internal/nls"
	"github.com/romlab/manifold/internal/poly"
	"github.com/romlab/manifold/internal/procrustes"
)

// iterState is the value carried between outer iterations. step returns a
// fresh state instead of mutating, so the loop in Fit owns the only mutable
// binding and Step C's workers can read a fixed snapshot.
type iterState struct {
	primary   *mat.Dense // n×r
	auxiliary *mat.Dense // n×q
	coeffs    *mat.Dense // q×((p−1)r), nil when degree < 2
	coords    *mat.Dense // r×k
	feats     *mat.Dense // ((p−1)r)×k, always poly.Expand(coords, degree)
	energy    float64
	stalled   int
	fallback  bool
}

// Fit runs the alternating minimization: seed with the POD bases and the
// closed-form coefficients, then iterate three sub-steps until the captured
// energy stabilizes or the budget runs out.
//
// Each outer iteration performs, in order:
//
//	A. Basis update — orthogonal Procrustes fit of the joint basis [V V̄]
//	   to the stacked target [Ŝ; Ξ·Poly].
//	B. Coefficient update — ridge least squares for Ξ against the residual
//	   of the just-updated bases and the previous coordinates.
//	C. Coordinate update — independent nonlinear least squares per sample,
//	   fanned out over the worker pool against a fixed model snapshot, then
//	   one polynomial re-expansion after all columns land.
//
// Budget exhaustion is reported through Model.Status, not an error. The
// context is checked between iterations.
func (l *Learner) Fit(ctx context.Context, data *mat.Dense) (*Model, error) {
	ref, centered, err := l.center(data)
	if err != nil {
		return nil, err
	}
	seed, err := l.pod(centered)
	if err != nil {
		return nil, err
	}
	feats := poly.Expand(seed.coords, l.degree)
	xi, _, err := l.fitCoeffs(centered, seed.primary, seed.auxiliary, seed.coords, feats)
	if err != nil {
		return nil, err
	}

	st := iterState{
		primary:   seed.primary,
		auxiliary: seed.auxiliary,
		coeffs:    xi,
		coords:    seed.coords,
		feats:     feats,
	}
	den := mat.Norm(centered, 2)
	normC2 := den * den

	model := &Model{
		Reference: ref,
		Degree:    l.degree,
		Status:    StatusBudgetExhausted,
	}
	prevEnergy := 0.0
	for it := 1; it <= l.maxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err = l.step(centered, normC2, st)
		if err != nil {
			return nil, err
		}

		stats := IterationStats{
			Iteration:     it,
			Energy:        st.energy,
			RelativeError: relativeToCentered(centered, &st, den),
			StalledSolves: st.stalled,
			FallbackSolve: st.fallback,
		}
		model.History = append(model.History, stats)
		model.Iterations = it
		l.log.Debug().
			Int("iteration", it).
			Float64("energy", st.energy).
			Float64("relative_error", stats.RelativeError).
			Int("stalled_solves", st.stalled).
			Msg("alternating step")

		if math.Abs(st.energy-prevEnergy) < l.tol {
			model.Status = StatusConverged
			break
		}
		prevEnergy = st.energy
	}

	model.Primary = st.primary
	model.Auxiliary = st.auxiliary
	model.Coeffs = st.coeffs
	model.Coords = st.coords
	model.Energy = st.energy
	return model, nil
}

// step performs one outer iteration and returns the next state.
func (l *Learner) step(centered *mat.Dense, normC2 float64, st iterState) (iterState, error) {
	n, _ := centered.Dims()
	r, k := st.coords.Dims()
	_, q := st.auxiliary.Dims()

	// Step A: best orthonormal joint basis for the target [Ŝ; Ξ·Poly].
	target := mat.NewDense(r+q, k, nil)
	target.Slice(0, r, 0, k).(*mat.Dense).Copy(st.coords)
	if st.coeffs != nil {
		target.Slice(r, r+q, 0, k).(*mat.Dense).Mul(st.coeffs, st.feats)
	}
	omega, err := procrustes.Fit(centered, target)
	if err != nil {
		return iterState{}, err
	}
	next := iterState{
		primary:   mat.DenseCopyOf(omega.Slice(0, n, 0, r)),
		auxiliary: mat.DenseCopyOf(omega.Slice(0, n, r, r+q)),
	}

	// Step B: refit Ξ against the new bases; coordinates and features still
	// reflect the previous iteration.
	next.coeffs, next.fallback, err = l.fitCoeffs(centered, next.primary, next.auxiliary, st.coords, st.feats)
	if err != nil {
		return iterState{}, err
	}

	// Step C: per-sample coordinate solves against the fixed (V, V̄, Ξ)
	// snapshot. Columns of the new coordinate matrix are disjoint, so the
	// workers need no locking; the polynomial re-expansion waits for all of
	// them.
	solver := &nls.Solver{
		Linear:  next.primary,
		Degree:  l.degree,
		Tol:     l.nlsTol,
		MaxIter: l.nlsIter,
	}
	if next.coeffs != nil {
		solver.Nonlinear = &mat.Dense{}
		solver.Nonlinear.Mul(next.auxiliary, next.coeffs)
	}

	next.coords = mat.NewDense(r, k, nil)
	workers := min(l.workers, k)
	chunk := (k + workers - 1) / workers
	var stalled atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, k)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			sample := make([]float64, n)
			init := make([]float64, r)
			for j := lo; j < hi; j++ {
				mat.Col(sample, j, centered)
				mat.Col(init, j, st.coords)
				x, ok := solver.Solve(sample, init)
				if !ok {
					stalled.Add(1)
				}
				next.coords.SetCol(j, x)
			}
		}(lo, hi)
	}
	wg.Wait()
	next.stalled = int(stalled.Load())
	next.feats = poly.Expand(next.coords, l.degree)

	next.energy = reconNorm(&next) / normC2
	return next, nil
}

// reconNorm returns ‖V·Ŝ + V̄·Ξ·Poly‖_F².
func reconNorm(st *iterState) float64 {
	var recon mat.Dense
	recon.Mul(st.primary, st.coords)
	if st.coeffs != nil {
		var corr mat.Dense
		corr.Product(st.auxiliary, st.coeffs, st.feats)
		recon.Add(&recon, &corr)
	}
	norm := mat.Norm(&recon, 2)
	return norm * norm
}

// relativeToCentered returns ‖C − (V·Ŝ + V̄·Ξ·Poly)‖_F / ‖C‖_F, the direct
// error counterpart of the energy criterion.
func relativeToCentered(centered *mat.Dense, st *iterState, den float64) float64 {
	var recon mat.Dense
	recon.Mul(st.primary, st.coords)
	if st.coeffs != nil {
		var corr mat.Dense
		corr.Product(st.auxiliary, st.coeffs, st.feats)
		recon.Add(&recon, &corr)
	}
	recon.Sub(centered, &recon)
	return mat.Norm(&recon, 2) / den
}
