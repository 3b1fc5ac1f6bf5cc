package period

import (
	"fmt"
	"math/big"
)

// Verify checks the expansion against number theory instead of re-deriving
// its digits:
//
//   - digits lie in [0, base)
//   - the period is empty exactly when the expansion terminates
//   - a terminating expansion has coprime residual 1
//   - otherwise base^len(period) ≡ 1 (mod q'), q' the coprime residual of the
//     reduced denominator
//
// Any failure wraps ErrInvariantViolated.
func (e *Expansion) Verify() error {
	if e == nil {
		return fmt.Errorf("%w: nil expansion", ErrInvariantViolated)
	}
	if e.Base < 2 {
		return fmt.Errorf("%w: base %d", ErrInvariantViolated, e.Base)
	}
	if e.Denominator == nil || e.Denominator.Sign() <= 0 {
		return fmt.Errorf("%w: denominator %v", ErrInvariantViolated, e.Denominator)
	}
	for _, block := range [][]int{e.PrePeriod, e.Period} {
		for _, d := range block {
			if d < 0 || d >= e.Base {
				return fmt.Errorf("%w: digit %d outside base %d", ErrInvariantViolated, d, e.Base)
			}
		}
	}
	if e.Terminates != (len(e.Period) == 0) {
		return fmt.Errorf("%w: terminates=%v with period length %d", ErrInvariantViolated, e.Terminates, len(e.Period))
	}

	residual := CoprimeResidual(e.ReducedDenominator(), e.Base)
	one := big.NewInt(1)
	if e.Terminates {
		if residual.Cmp(one) != 0 {
			return fmt.Errorf("%w: terminating expansion with coprime residual %s", ErrInvariantViolated, residual.String())
		}
		return nil
	}
	if residual.Cmp(one) == 0 {
		return fmt.Errorf("%w: periodic expansion of a terminating fraction", ErrInvariantViolated)
	}
	if !HoldsPeriodIdentity(e.Base, len(e.Period), residual) {
		return fmt.Errorf("%w: %d^%d mod %s != 1", ErrInvariantViolated, e.Base, len(e.Period), residual.String())
	}
	return nil
}

// HoldsPeriodIdentity reports whether base^length ≡ 1 (mod residual).
func HoldsPeriodIdentity(base, length int, residual *big.Int) bool {
	if residual == nil || residual.Sign() <= 0 || length <= 0 {
		return false
	}
	one := big.NewInt(1)
	if residual.Cmp(one) == 0 {
		return true
	}
	r := new(big.Int).Exp(big.NewInt(int64(base)), big.NewInt(int64(length)), residual)
	return r.Cmp(one) == 0
}
