// Package period extracts the exact positional expansion of a rational p/q in
// any base b >= 2 by long division with remainder-cycle detection.
//
// Every call owns its own remainder table, so Extract and ToBase are safe to
// call from any number of goroutines without coordination.
package period

import (
	"fmt"
	"math/big"
)

// Extract computes the base-b expansion of p/q. It returns a complete
// Expansion or an error, never both.
//
// maxDigits bounds the number of fractional digits produced while searching
// for termination or a repeated remainder; maxDigits <= 0 selects
// DefaultBound(q). Exhausting the bound yields a *BoundError wrapping
// ErrPeriodNotFound.
func Extract(p, q *big.Int, base, maxDigits int) (*Expansion, error) {
	if q == nil || q.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDenominator, q)
	}
	if base < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	if p == nil {
		p = new(big.Int)
	}
	if maxDigits <= 0 {
		maxDigits = DefaultBound(q)
	}

	num := new(big.Int).Abs(p)
	den := new(big.Int).Set(q)
	intPart, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	b := big.NewInt(int64(base))
	prod := new(big.Int)
	digit := new(big.Int)

	// remainder -> position of the digit it produced
	seen := make(map[string]int)
	digits := make([]int, 0, min(maxDigits, 64))

	e := &Expansion{
		Base:        base,
		Numerator:   new(big.Int).Set(p),
		Denominator: den,
		Negative:    p.Sign() < 0,
		IntegerPart: intPart,
	}

	for pos := 0; ; pos++ {
		if rem.Sign() == 0 {
			e.PrePeriod = digits
			e.Period = []int{}
			e.Terminates = true
			return e, nil
		}
		key := string(rem.Bytes())
		if start, ok := seen[key]; ok {
			e.PrePeriod = digits[:start:start]
			e.Period = digits[start:]
			return e, nil
		}
		if pos == maxDigits {
			return nil, &BoundError{
				MaxDigits: maxDigits,
				Fraction:  p.String() + "/" + q.String(),
				Base:      base,
			}
		}
		seen[key] = pos

		prod.Mul(rem, b)
		digit.QuoRem(prod, den, rem)
		digits = append(digits, int(digit.Int64()))
	}
}

// ExtractInt is Extract for machine-sized operands.
func ExtractInt(p, q int64, base, maxDigits int) (*Expansion, error) {
	return Extract(big.NewInt(p), big.NewInt(q), base, maxDigits)
}

// Reciprocal expands 1/n in base with the default bound.
func Reciprocal(n int64, base int) (*Expansion, error) {
	return ExtractInt(1, n, base, 0)
}

// ParseFraction parses "p/q" or a bare integer "p" (q = 1).
func ParseFraction(s string) (p, q *big.Int, err error) {
	num, den := s, "1"
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			num, den = s[:i], s[i+1:]
			break
		}
	}
	p, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid numerator %q", num)
	}
	q, ok = new(big.Int).SetString(den, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid denominator %q", den)
	}
	if q.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDenominator, den)
	}
	return p, q, nil
}
