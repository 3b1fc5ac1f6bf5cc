package analysis

import (
	"math/big"

	"repetend/internal/catalog"
	"repetend/internal/period"
)

// Report is the full pattern scan of one expansion's period.
type Report struct {
	Fraction     string             `json:"fraction"`
	Base         int                `json:"base"`
	Offset       int                `json:"offset"`
	Period       string             `json:"period"`
	PeriodLength int                `json:"period_length"`
	PeriodValue  *big.Int           `json:"period_value"`
	Stats        Stats              `json:"stats"`
	Runs         []Run              `json:"runs"`
	Palindromes  PalindromeScan     `json:"palindromes"`
	Progressions []Progression      `json:"progressions"`
	Subsequences []SubsequenceMatch `json:"subsequences"`
	Modular      []ModularMatch     `json:"modular"`
	Connections  []Connection       `json:"connections"`
}

// Analyze scans the period of e. cat may be nil, which skips the catalog
// based sections.
func Analyze(e *period.Expansion, cat *catalog.Catalog) *Report {
	value := e.PeriodValue()
	r := &Report{
		Fraction:     e.Numerator.String() + "/" + e.Denominator.String(),
		Base:         e.Base,
		Offset:       e.Offset(),
		Period:       e.PeriodString(),
		PeriodLength: e.Length(),
		PeriodValue:  value,
		Stats:        ComputeStats(e.Period, e.Base),
		Runs:         Runs(e.Period),
		Palindromes:  Palindromes(e.Period),
		Progressions: ArithmeticProgressions(e.Period),
		Subsequences: []SubsequenceMatch{},
		Modular:      []ModularMatch{},
		Connections:  []Connection{},
	}
	if cat == nil || e.Terminates {
		return r
	}
	r.Subsequences = FindSubsequences(period.FormatDigits(e.Period), cat.Targets())
	if value.Sign() > 0 {
		r.Modular = ModularMatches(value, cat.ModularConstants())
	}
	r.Connections = Connections(value, e.Length(), cat)
	return r
}
