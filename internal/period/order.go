package period

import (
	"fmt"
	"math/big"
)

// MaxAutoBound caps the digit bound chosen when callers pass maxDigits <= 0.
const MaxAutoBound = 1 << 20

// DefaultBound returns a digit bound that always resolves 1/q: a remainder
// lies in [0, q), so some remainder repeats (or hits zero) within q steps.
// Denominators above MaxAutoBound get MaxAutoBound and may need a larger
// explicit bound.
func DefaultBound(q *big.Int) int {
	if q == nil || q.Sign() <= 0 {
		return 1
	}
	if q.IsInt64() && q.Int64() <= MaxAutoBound {
		return int(q.Int64())
	}
	return MaxAutoBound
}

// CoprimeResidual divides q by every factor it shares with base until none
// remain. The result governs the period length; what was divided out
// governs the pre-period.
func CoprimeResidual(q *big.Int, base int) *big.Int {
	r := new(big.Int).Abs(q)
	if r.Sign() == 0 {
		return r
	}
	b := big.NewInt(int64(base))
	g := new(big.Int)
	for {
		g.GCD(nil, nil, r, b)
		if g.Cmp(big.NewInt(1)) == 0 {
			return r
		}
		r.Quo(r, g)
	}
}

// MultiplicativeOrder returns the smallest k > 0 with base^k ≡ 1 (mod n).
// It fails with ErrNotCoprime when gcd(base, n) != 1 and with a *BoundError
// when no order is found within limit steps (limit <= 0 uses DefaultBound).
func MultiplicativeOrder(base int, n *big.Int, limit int) (int, error) {
	if base < 2 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	if n == nil || n.Sign() <= 0 {
		return 0, fmt.Errorf("%w: modulus %v", ErrInvalidDenominator, n)
	}
	one := big.NewInt(1)
	if n.Cmp(one) == 0 {
		return 1, nil
	}
	b := big.NewInt(int64(base))
	if g := new(big.Int).GCD(nil, nil, b, n); g.Cmp(one) != 0 {
		return 0, fmt.Errorf("%w: gcd(%d, %s) = %s", ErrNotCoprime, base, n.String(), g.String())
	}
	if limit <= 0 {
		limit = DefaultBound(n)
	}

	r := new(big.Int).Mod(b, n)
	for k := 1; k <= limit; k++ {
		if r.Cmp(one) == 0 {
			return k, nil
		}
		r.Mul(r, b)
		r.Mod(r, n)
	}
	return 0, &BoundError{MaxDigits: limit, Fraction: "1/" + n.String(), Base: base}
}

// PeriodLength is the length of the repeating block of 1/q in base: the
// multiplicative order of base modulo the coprime residual of q. It is 0 for
// terminating expansions.
func PeriodLength(q *big.Int, base int) (int, error) {
	if q == nil || q.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDenominator, q)
	}
	if base < 2 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	residual := CoprimeResidual(q, base)
	if residual.Cmp(big.NewInt(1)) == 0 {
		return 0, nil
	}
	return MultiplicativeOrder(base, residual, 0)
}
