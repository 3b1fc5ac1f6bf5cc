package period

import (
	"math/big"
	"slices"
	"strings"
)

// Expansion is the positional expansion of a rational number in one base.
// It is a value: Extract builds it once and nothing mutates it afterwards.
type Expansion struct {
	Base        int      `json:"base"`
	Numerator   *big.Int `json:"numerator"`
	Denominator *big.Int `json:"denominator"`
	Negative    bool     `json:"negative,omitempty"`
	IntegerPart *big.Int `json:"integer_part"`

	// PrePeriod holds the fractional digits before the repeating block.
	PrePeriod []int `json:"preperiod"`
	// Period is the repeating block, most significant digit first. It is
	// empty exactly when Terminates is true.
	Period     []int `json:"period"`
	Terminates bool  `json:"terminates"`
}

// Offset is the number of digits before the repeating part begins.
func (e *Expansion) Offset() int {
	return len(e.PrePeriod)
}

// Length is the period length, 0 for terminating expansions.
func (e *Expansion) Length() int {
	return len(e.Period)
}

// Digits returns the first n fractional digits, cycling the period. A
// terminating expansion continues with zeros.
func (e *Expansion) Digits(n int) []int {
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	pre := copy(out, e.PrePeriod)
	for i := pre; i < n; i++ {
		if e.Terminates {
			break
		}
		out[i] = e.Period[(i-pre)%len(e.Period)]
	}
	return out
}

// PeriodString renders the repeating block. Terminating expansions render as
// "0", the convention the exploratory scripts used for "no period".
func (e *Expansion) PeriodString() string {
	if e.Terminates {
		return "0"
	}
	return FormatDigits(e.Period)
}

// PrePeriodString renders the non-repeating fractional digits.
func (e *Expansion) PrePeriodString() string {
	return FormatDigits(e.PrePeriod)
}

// PeriodValue reads the repeating block as an integer in the expansion's own
// base, leading zeros dropped. Terminating expansions have value 0.
func (e *Expansion) PeriodValue() *big.Int {
	v, err := FromDigits(e.Period, e.Base)
	if err != nil {
		return new(big.Int)
	}
	return v
}

// ReducedDenominator is q / gcd(p, q), the denominator that actually governs
// the expansion.
func (e *Expansion) ReducedDenominator() *big.Int {
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(e.Numerator), e.Denominator)
	if g.Sign() == 0 {
		return new(big.Int).Set(e.Denominator)
	}
	return new(big.Int).Quo(e.Denominator, g)
}

// String renders the expansion with the period in parentheses, e.g.
// "0.01(0869565217391304347826)" or "0.25".
func (e *Expansion) String() string {
	var sb strings.Builder
	if e.Negative && (e.IntegerPart.Sign() != 0 || len(e.PrePeriod) > 0 || !e.Terminates) {
		sb.WriteByte('-')
	}
	intDigits, err := ToBase(e.IntegerPart, e.Base)
	if err != nil {
		intDigits = []int{0}
	}
	sb.WriteString(FormatDigits(intDigits))
	if len(e.PrePeriod) == 0 && e.Terminates {
		return sb.String()
	}
	sb.WriteByte('.')
	sb.WriteString(FormatDigits(e.PrePeriod))
	if !e.Terminates {
		sb.WriteByte('(')
		sb.WriteString(FormatDigits(e.Period))
		sb.WriteByte(')')
	}
	return sb.String()
}

// Equal reports whether two expansions describe the same digits of the same
// fraction in the same base.
func (e *Expansion) Equal(o *Expansion) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Base == o.Base &&
		e.Numerator.Cmp(o.Numerator) == 0 &&
		e.Denominator.Cmp(o.Denominator) == 0 &&
		e.Negative == o.Negative &&
		e.IntegerPart.Cmp(o.IntegerPart) == 0 &&
		e.Terminates == o.Terminates &&
		slices.Equal(e.PrePeriod, o.PrePeriod) &&
		slices.Equal(e.Period, o.Period)
}

// CheckBound reports whether Extract, given maxDigits, would have resolved
// this expansion. A periodic expansion needs Offset()+Length() digits and a
// terminating one Offset() digits; maxDigits <= 0 means DefaultBound of the
// denominator. The error is a *BoundError, as Extract would return.
func (e *Expansion) CheckBound(maxDigits int) error {
	if maxDigits <= 0 {
		maxDigits = DefaultBound(e.Denominator)
	}
	need := e.Offset()
	if !e.Terminates {
		need += e.Length()
	}
	if need <= maxDigits {
		return nil
	}
	return &BoundError{
		MaxDigits: maxDigits,
		Fraction:  e.Numerator.String() + "/" + e.Denominator.String(),
		Base:      e.Base,
	}
}
