package manifold

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// podSeed holds the singular-vector split shared by all three fits.
type podSeed struct {
	primary   *mat.Dense // n×r, dominant left singular vectors
	auxiliary *mat.Dense // n×q, the next q left singular vectors
	coords    *mat.Dense // r×k, projection of the centered data onto primary
	values    []float64  // all singular values, descending
}

// pod computes the thin SVD of the centered data and splits its leading left
// singular vectors into the primary and auxiliary bases. The sign of each
// column is arbitrary; reconstructions are unaffected because the coordinates
// absorb it.
func (l *Learner) pod(centered *mat.Dense) (*podSeed, error) {
	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: svd of centered data failed", ErrDegenerateInput)
	}
	var u mat.Dense
	svd.UTo(&u)
	n, _ := centered.Dims()
	r, q := l.rank, l.auxRank

	seed := &podSeed{
		primary:   mat.DenseCopyOf(u.Slice(0, n, 0, r)),
		auxiliary: mat.DenseCopyOf(u.Slice(0, n, r, r+q)),
		values:    svd.Values(nil),
	}
	seed.coords = &mat.Dense{}
	seed.coords.Mul(seed.primary.T(), centered)
	return seed, nil
}

// FitLinear computes the POD baseline: project the centered data onto the
// dominant singular vectors. The model's Auxiliary and Coeffs are nil; its
// Energy is the variance fraction captured by the primary basis. Numerical
// rank deficiency degrades accuracy silently rather than erroring.
func (l *Learner) FitLinear(data *mat.Dense) (*Model, error) {
	ref, centered, err := l.center(data)
	if err != nil {
		return nil, err
	}
	seed, err := l.pod(centered)
	if err != nil {
		return nil, err
	}

	var total, captured float64
	for i, s := range seed.values {
		total += s * s
		if i < l.rank {
			captured += s * s
		}
	}

	return &Model{
		Reference: ref,
		Primary:   seed.primary,
		Coords:    seed.coords,
		Degree:    1,
		Status:    StatusConverged,
		Energy:    captured / total,
	}, nil
}
