// Package poly builds the polynomial feature expansion of reduced coordinates:
// the vertical stack of elementwise powers 2..degree of a coordinate matrix.
package poly

import "gonum.org/v1/gonum/mat"

// FeatureCount returns the number of feature rows produced for the given
// coordinate rank and expansion degree. A degree below 2 produces no features.
func FeatureCount(rank, degree int) int {
	if degree < 2 {
		return 0
	}
	return (degree - 1) * rank
}

// Expand stacks the elementwise powers 2..degree of the r×k coordinate matrix s
// into a ((degree−1)·r)×k matrix. Row block d−2 holds the d-th powers, in
// increasing degree order. Expand returns nil when degree < 2 (empty feature
// block). Large coordinate magnitudes can overflow to ±Inf at high degrees;
// that is propagated, not detected.
func Expand(s *mat.Dense, degree int) *mat.Dense {
	r, k := s.Dims()
	m := FeatureCount(r, degree)
	if m == 0 {
		return nil
	}
	out := mat.NewDense(m, k, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			v := s.At(i, j)
			pw := v
			for d := 2; d <= degree; d++ {
				pw *= v
				out.Set((d-2)*r+i, j, pw)
			}
		}
	}
	return out
}

// ExpandVec is the single-column form of Expand. It fills dst (allocating when
// dst is nil) with the stacked powers 2..degree of x and returns it.
func ExpandVec(dst, x []float64, degree int) []float64 {
	r := len(x)
	m := FeatureCount(r, degree)
	if dst == nil {
		dst = make([]float64, m)
	}
	for i, v := range x {
		pw := v
		for d := 2; d <= degree; d++ {
			pw *= v
			dst[(d-2)*r+i] = pw
		}
	}
	return dst[:m]
}

// Jacobian fills dst (allocating when dst is nil) with the derivative of
// ExpandVec at x: a ((degree−1)·r)×r matrix whose block for degree d has
// d·x_i^(d−1) on its diagonal and zeros elsewhere.
func Jacobian(dst *mat.Dense, x []float64, degree int) *mat.Dense {
	r := len(x)
	m := FeatureCount(r, degree)
	if m == 0 {
		return nil
	}
	if dst == nil {
		dst = mat.NewDense(m, r, nil)
	} else {
		dst.Zero()
	}
	for i, v := range x {
		pw := 1.0
		for d := 2; d <= degree; d++ {
			pw *= v
			dst.Set((d-2)*r+i, i, float64(d)*pw)
		}
	}
	return dst
}
