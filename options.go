package manifold

import (
	"fmt"

	"github.com/rs/zerolog"
)

type Option func(*Learner) error

// WithDegree sets the polynomial expansion degree p. Powers 2..p of the
// reduced coordinates feed the nonlinear correction. A degree of 1 leaves an
// empty feature block, reducing every method to the linear projection.
func WithDegree(p int) Option {
	return func(l *Learner) error {
		if p < 1 {
			return fmt.Errorf("%w: degree %d < 1", ErrInvalidOption, p)
		}
		l.degree = p
		return nil
	}
}

// WithRanks sets the primary basis rank r and the auxiliary basis rank q.
// The primary basis carries the linear part of the approximation; the
// auxiliary basis carries the polynomial correction.
func WithRanks(primary, auxiliary int) Option {
	return func(l *Learner) error {
		if primary < 1 || auxiliary < 1 {
			return fmt.Errorf("%w: ranks %d, %d must be positive", ErrInvalidOption, primary, auxiliary)
		}
		l.rank = primary
		l.auxRank = auxiliary
		return nil
	}
}

// WithRidge sets the regularization weight γ of the coefficient solve.
// Larger values improve conditioning at the cost of fit accuracy.
func WithRidge(gamma float64) Option {
	return func(l *Learner) error {
		if gamma < 0 {
			return fmt.Errorf("%w: ridge weight %v < 0", ErrInvalidOption, gamma)
		}
		l.ridge = gamma
		return nil
	}
}

// WithTolerance sets the convergence tolerance on the change of captured
// energy between outer iterations.
func WithTolerance(tol float64) Option {
	return func(l *Learner) error {
		if tol <= 0 {
			return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidOption, tol)
		}
		l.tol = tol
		return nil
	}
}

// WithMaxIterations sets the outer iteration budget. Exhausting it is not an
// error; the model is returned with StatusBudgetExhausted.
func WithMaxIterations(n int) Option {
	return func(l *Learner) error {
		if n < 1 {
			return fmt.Errorf("%w: iteration budget %d < 1", ErrInvalidOption, n)
		}
		l.maxIter = n
		return nil
	}
}

// WithReference supplies a fixed reference state instead of deriving it as
// the column mean of the data. Its length must match the data's ambient
// dimension.
func WithReference(ref []float64) Option {
	return func(l *Learner) error {
		if len(ref) == 0 {
			return fmt.Errorf("%w: empty reference state", ErrInvalidOption)
		}
		l.ref = ref
		return nil
	}
}

// WithWorkers sets the number of goroutines used for the per-sample
// coordinate solves. Defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(l *Learner) error {
		if n < 1 {
			return fmt.Errorf("%w: worker count %d < 1", ErrInvalidOption, n)
		}
		l.workers = n
		return nil
	}
}

// WithSampleSolver tunes the per-sample nonlinear solver: the gradient
// tolerance it must reach and its internal iteration cap. Samples that stall
// at the cap keep their best iterate and are counted in the iteration
// diagnostics.
func WithSampleSolver(tol float64, maxIter int) Option {
	return func(l *Learner) error {
		if tol <= 0 || maxIter < 1 {
			return fmt.Errorf("%w: sample solver tolerance %v, cap %d", ErrInvalidOption, tol, maxIter)
		}
		l.nlsTol = tol
		l.nlsIter = maxIter
		return nil
	}
}

// WithLogger directs per-iteration diagnostics and conditioning warnings to
// the given logger. The default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Learner) error {
		l.log = log
		return nil
	}
}
