package manifold

import "errors"

var (
	// ErrInvalidOption reports a hyperparameter outside its valid range.
	ErrInvalidOption = errors.New("invalid option")
	// ErrDegenerateInput reports data that cannot determine the requested
	// bases: too few samples, non-finite entries, or zero variance.
	ErrDegenerateInput = errors.New("degenerate input data")
	// ErrIllConditioned reports a coefficient solve whose normal equations
	// were singular beyond recovery.
	ErrIllConditioned = errors.New("ill-conditioned coefficient solve")
)
