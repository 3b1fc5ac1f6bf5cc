package period

import (
	"errors"
	"fmt"
)

// Extraction errors.
var (
	// ErrInvalidDenominator is returned when q is nil, zero or negative.
	ErrInvalidDenominator = errors.New("denominator must be positive")

	// ErrInvalidBase is returned when the base is below 2, or above 36 where
	// a textual digit alphabet is required.
	ErrInvalidBase = errors.New("invalid base")

	// ErrPeriodNotFound is returned when the digit bound is exhausted before
	// the expansion terminates or repeats.
	ErrPeriodNotFound = errors.New("period not found within bound")

	// ErrNegativeValue is returned by ToBase for negative integers.
	ErrNegativeValue = errors.New("value must be non-negative")

	// ErrNotCoprime is returned by MultiplicativeOrder when gcd(base, n) != 1.
	ErrNotCoprime = errors.New("base and modulus are not coprime")

	// ErrInvariantViolated is returned by Verify when an expansion does not
	// satisfy the period identity.
	ErrInvariantViolated = errors.New("expansion invariant violated")
)

// BoundError reports a search that ran out of digits. It unwraps to
// ErrPeriodNotFound; retrying with a larger bound is always safe.
type BoundError struct {
	MaxDigits int
	Fraction  string
	Base      int
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("period of %s in base %d not found within %d digits", e.Fraction, e.Base, e.MaxDigits)
}

// Unwrap returns ErrPeriodNotFound for errors.Is compatibility.
func (e *BoundError) Unwrap() error {
	return ErrPeriodNotFound
}
