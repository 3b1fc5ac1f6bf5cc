package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"repetend/internal/period"
)

// Flag names a boolean property of a period profile.
type Flag string

const (
	FlagDigitSumDiv9   Flag = "digit_sum_div_9"
	FlagBinaryBalanced Flag = "binary_balanced"
	FlagTernaryDoubles Flag = "ternary_doubles"
	FlagOctal24        Flag = "octal_length_24"
	FlagContains729    Flag = "contains_729"
	FlagAllDigits      Flag = "all_digits"
)

// Flags lists every profile flag in report order.
var Flags = []Flag{
	FlagDigitSumDiv9,
	FlagBinaryBalanced,
	FlagTernaryDoubles,
	FlagOctal24,
	FlagContains729,
	FlagAllDigits,
}

// Description is a human label for the flag.
func (f Flag) Description() string {
	switch f {
	case FlagDigitSumDiv9:
		return "Digit sum divisible by 9"
	case FlagBinaryBalanced:
		return "Binary perfect balance"
	case FlagTernaryDoubles:
		return "Ternary length = 2x period"
	case FlagOctal24:
		return "Octal length = 24"
	case FlagContains729:
		return "Contains '729'"
	case FlagAllDigits:
		return "All digits present"
	}
	return string(f)
}

// Profile is the pattern profile of the period of 1/n. The binary, ternary
// and octal figures describe the period read as one integer, not the
// expansion of 1/n in those bases.
type Profile struct {
	N             int64 `json:"n"`
	Base          int   `json:"base"`
	PeriodLength  int   `json:"period_length"`
	DigitSum      int   `json:"digit_sum"`
	BinaryOnes    int   `json:"binary_ones"`
	BinaryZeros   int   `json:"binary_zeros"`
	TernaryLength int   `json:"ternary_length"`
	OctalLength   int   `json:"octal_length"`
	HexLength     int   `json:"hex_length"`

	// PeriodFactors factors the period value; nil with PeriodTooLarge set
	// when the value is beyond MaxFactorValue.
	PeriodFactors       []int64 `json:"period_factors,omitempty"`
	PeriodTooLarge      bool    `json:"period_too_large_to_factor,omitempty"`
	DigitSumFactors     []int64 `json:"digit_sum_factors,omitempty"`
	DigitSumHas3Squared bool    `json:"digit_sum_has_3_squared"`

	DigitSumDiv9   bool `json:"digit_sum_div_9"`
	BinaryBalanced bool `json:"binary_balanced"`
	TernaryDoubles bool `json:"ternary_doubles"`
	Octal24        bool `json:"octal_length_24"`
	Contains729    bool `json:"contains_729"`
	AllDigits      bool `json:"all_digits"`
}

// Has reports the value of a flag.
func (p *Profile) Has(f Flag) bool {
	switch f {
	case FlagDigitSumDiv9:
		return p.DigitSumDiv9
	case FlagBinaryBalanced:
		return p.BinaryBalanced
	case FlagTernaryDoubles:
		return p.TernaryDoubles
	case FlagOctal24:
		return p.Octal24
	case FlagContains729:
		return p.Contains729
	case FlagAllDigits:
		return p.AllDigits
	}
	return false
}

// ProfileOf profiles the reciprocal n in base. Terminating expansions yield
// a zero profile with PeriodLength 0.
func ProfileOf(n int64, base int) (*Profile, error) {
	e, err := period.Reciprocal(n, base)
	if err != nil {
		return nil, err
	}
	return ProfileExpansion(e)
}

// ProfileExpansion profiles an already extracted expansion.
func ProfileExpansion(e *period.Expansion) (*Profile, error) {
	p := &Profile{N: e.Denominator.Int64(), Base: e.Base, PeriodLength: e.Length()}
	if e.Terminates {
		return p, nil
	}

	for _, d := range e.Period {
		p.DigitSum += d
	}
	p.DigitSumDiv9 = p.DigitSum%9 == 0

	value := e.PeriodValue()
	bits, err := period.ToBase(value, 2)
	if err != nil {
		return nil, err
	}
	for _, b := range bits {
		if b == 1 {
			p.BinaryOnes++
		} else {
			p.BinaryZeros++
		}
	}
	p.BinaryBalanced = p.BinaryOnes == p.BinaryZeros

	if p.TernaryLength, err = period.RepresentationLength(value, 3); err != nil {
		return nil, err
	}
	p.TernaryDoubles = p.TernaryLength == 2*p.PeriodLength
	if p.OctalLength, err = period.RepresentationLength(value, 8); err != nil {
		return nil, err
	}
	p.Octal24 = p.OctalLength == 24
	if p.HexLength, err = period.RepresentationLength(value, 16); err != nil {
		return nil, err
	}
	switch factors, err := Factorize(value, 0); {
	case err == nil:
		p.PeriodFactors = factors
	case errors.Is(err, ErrTooLarge):
		p.PeriodTooLarge = true
	default:
		return nil, err
	}
	if p.DigitSumFactors, err = FactorizeInt(int64(p.DigitSum)); err != nil {
		return nil, err
	}
	p.DigitSumHas3Squared = Multiplicity(p.DigitSumFactors, 3) >= 2

	p.Contains729 = strings.Contains(period.FormatDigits(e.Period), "729")
	p.AllDigits = ComputeStats(e.Period, e.Base).AllDigitsShown
	return p, nil
}

// QuantityComparison sets the period length of 1/n in ToBase against the
// number of ToBase digits needed to write the FromBase period as an integer.
// The two are unrelated quantities; for 1/92 with FromBase 10 and ToBase 3
// they are 22 and 44.
type QuantityComparison struct {
	N                    string  `json:"n"`
	FromBase             int     `json:"from_base"`
	ToBase               int     `json:"to_base"`
	SourcePeriodLength   int     `json:"source_period_length"`
	PeriodLengthInBase   int     `json:"period_length_in_base"`
	RepresentationLength int     `json:"representation_length"`
	Expected             float64 `json:"expected_representation_length"`
	Doubles              bool    `json:"doubles"`
}

// CompareQuantities computes both quantities for the reciprocal of n. The
// expected representation length is SourcePeriodLength * log_to(from).
func CompareQuantities(n *big.Int, fromBase, toBase int) (*QuantityComparison, error) {
	if n == nil || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", period.ErrInvalidDenominator, n)
	}
	if toBase < 2 {
		return nil, fmt.Errorf("%w: %d", period.ErrInvalidBase, toBase)
	}
	e, err := period.Extract(big.NewInt(1), n, fromBase, 0)
	if err != nil {
		return nil, err
	}
	inBase, err := period.PeriodLength(n, toBase)
	if err != nil {
		return nil, err
	}
	c := &QuantityComparison{
		N:                  n.String(),
		FromBase:           fromBase,
		ToBase:             toBase,
		SourcePeriodLength: e.Length(),
		PeriodLengthInBase: inBase,
		Expected:           float64(e.Length()) * math.Log(float64(fromBase)) / math.Log(float64(toBase)),
	}
	if !e.Terminates {
		if c.RepresentationLength, err = period.RepresentationLength(e.PeriodValue(), toBase); err != nil {
			return nil, err
		}
	}
	c.Doubles = c.SourcePeriodLength > 0 && c.RepresentationLength == 2*c.SourcePeriodLength
	return c, nil
}

// RationalReport describes the reciprocal of a rational p/q: its period is
// governed by the reduced numerator.
type RationalReport struct {
	Numerator          string            `json:"numerator"`
	Denominator        string            `json:"denominator"`
	GCD                string            `json:"gcd"`
	ReducedNumerator   string            `json:"reduced_numerator"`
	ReducedDenominator string            `json:"reduced_denominator"`
	Reciprocal         *period.Expansion `json:"reciprocal"`
	PeriodLength       int               `json:"period_length"`
	DigitSum           int               `json:"digit_sum"`
	Contains729        bool              `json:"contains_729"`
}

// Rational reduces p/q and expands q'/p' in base. maxDigits is passed to
// the extractor unchanged.
func Rational(p, q *big.Int, base, maxDigits int) (*RationalReport, error) {
	if q == nil || q.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", period.ErrInvalidDenominator, q)
	}
	if p == nil || p.Sign() <= 0 {
		return nil, fmt.Errorf("%w: reciprocal of %v/%v", period.ErrInvalidDenominator, p, q)
	}
	g := new(big.Int).GCD(nil, nil, p, q)
	rp := new(big.Int).Quo(p, g)
	rq := new(big.Int).Quo(q, g)

	e, err := period.Extract(rq, rp, base, maxDigits)
	if err != nil {
		return nil, err
	}
	r := &RationalReport{
		Numerator:          p.String(),
		Denominator:        q.String(),
		GCD:                g.String(),
		ReducedNumerator:   rp.String(),
		ReducedDenominator: rq.String(),
		Reciprocal:         e,
		PeriodLength:       e.Length(),
	}
	for _, d := range e.Period {
		r.DigitSum += d
	}
	r.Contains729 = !e.Terminates && strings.Contains(period.FormatDigits(e.Period), "729")
	return r, nil
}
