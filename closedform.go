package manifold

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/romlab/manifold/internal/poly"
	"github.com/romlab/manifold/internal/ridge"
)

// FitClosedForm computes the one-shot nonlinear manifold baseline: the POD
// bases are kept fixed and the coefficient matrix Ξ is fitted in a single
// ridge-regularized least-squares solve of
//
//	Ξ = (V̄ᵀ·(C − V·Ŝ)·Polyᵀ) · (Poly·Polyᵀ + γI)⁻¹.
//
// A rank-deficient solve at γ = 0 falls back to a pseudo-inverse and logs a
// conditioning warning; FitClosedForm errors only when even the fallback is
// singular.
func (l *Learner) FitClosedForm(data *mat.Dense) (*Model, error) {
	ref, centered, err := l.center(data)
	if err != nil {
		return nil, err
	}
	seed, err := l.pod(centered)
	if err != nil {
		return nil, err
	}

	xi, _, err := l.fitCoeffs(centered, seed.primary, seed.auxiliary, seed.coords,
		poly.Expand(seed.coords, l.degree))
	if err != nil {
		return nil, err
	}

	model := &Model{
		Reference: ref,
		Primary:   seed.primary,
		Auxiliary: seed.auxiliary,
		Coeffs:    xi,
		Coords:    seed.coords,
		Degree:    l.degree,
		Status:    StatusConverged,
	}
	model.Energy = capturedEnergy(centered, model)
	return model, nil
}

// fitCoeffs solves the ridge normal equations for Ξ given fixed bases,
// coordinates, and features. It returns a nil Ξ when the feature block is
// empty (degree < 2) and reports whether the pseudo-inverse fallback fired.
func (l *Learner) fitCoeffs(centered, primary, auxiliary, coords, feats *mat.Dense) (*mat.Dense, bool, error) {
	if feats == nil {
		return nil, false, nil
	}

	// Residual of the linear part, projected onto the auxiliary basis.
	var projErr mat.Dense
	projErr.Mul(primary, coords)
	projErr.Sub(centered, &projErr)
	var resid mat.Dense
	resid.Mul(auxiliary.T(), &projErr)

	xi, fallback, err := ridge.Solve(&resid, feats, l.ridge)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", ErrIllConditioned, err)
	}
	if fallback {
		l.log.Warn().Float64("ridge", l.ridge).
			Msg("coefficient solve ill-conditioned, used pseudo-inverse")
	}
	return xi, fallback, nil
}

// capturedEnergy returns ‖V·Ŝ + V̄·Ξ·Poly‖_F² / ‖C‖_F², the fraction of
// centered-data energy the model's reconstruction carries.
func capturedEnergy(centered *mat.Dense, m *Model) float64 {
	var recon mat.Dense
	recon.Mul(m.Primary, m.Coords)
	if m.Coeffs != nil {
		feats := poly.Expand(m.Coords, m.Degree)
		var corr mat.Dense
		corr.Product(m.Auxiliary, m.Coeffs, feats)
		recon.Add(&recon, &corr)
	}
	num := mat.Norm(&recon, 2)
	den := mat.Norm(centered, 2)
	return (num * num) / (den * den)
}
