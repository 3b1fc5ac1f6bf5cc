package analysis

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repetend/internal/catalog"
	"repetend/internal/period"
)

func digitsOf(s string) []int {
	out := make([]int, len(s))
	for i := range s {
		out[i] = int(s[i] - '0')
	}
	return out
}

func reciprocal(t *testing.T, n int64) *period.Expansion {
	t.Helper()
	e, err := period.Reciprocal(n, 10)
	require.NoError(t, err)
	return e
}

func TestComputeStats_137(t *testing.T) {
	s := ComputeStats(digitsOf("00729927"), 10)

	assert.Equal(t, 8, s.Length)
	assert.Equal(t, []int{2, 0, 2, 0, 0, 0, 0, 2, 0, 2}, s.Frequency)
	assert.Equal(t, []DigitCount{{0, 2}, {7, 2}, {2, 2}}, s.MostCommon)
	assert.Equal(t, []DigitCount{{7, 2}, {2, 2}, {9, 2}}, s.LeastCommon)
	assert.InDelta(t, 4.5, s.Mean, 1e-12)
	assert.InDelta(t, 13.25, s.Variance, 1e-12)
	assert.InDelta(t, 2.0, s.Entropy, 1e-12)
	assert.Equal(t, 36, s.DigitSum)
	assert.Equal(t, 0, s.DigitSumMod9)
	assert.Equal(t, 4, s.Distinct)
	assert.False(t, s.AllDigitsShown)
}

func TestComputeStats_EdgeCases(t *testing.T) {
	empty := ComputeStats(nil, 10)
	assert.Equal(t, 0, empty.Length)
	assert.Zero(t, empty.Mean)
	assert.Empty(t, empty.MostCommon)
	assert.Nil(t, empty.LeastCommon)

	two := ComputeStats([]int{1, 1, 0}, 2)
	assert.True(t, two.AllDigitsShown)
	assert.Equal(t, []DigitCount{{1, 2}, {0, 1}}, two.MostCommon)
	assert.Nil(t, two.LeastCommon)

	assert.True(t, ComputeStats(digitsOf("0869565217391304347826"), 10).AllDigitsShown)
}

func TestComputeStats_IgnoresValuesOutsideBase(t *testing.T) {
	got := ComputeStats([]int{1, 12, 1, -3, 0, 2}, 3)
	want := ComputeStats([]int{1, 1, 0, 2}, 3)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, got.Length)
	assert.Equal(t, 4, got.DigitSum)
	assert.Equal(t, []DigitCount{{1, 2}, {0, 1}, {2, 1}}, got.MostCommon)

	for _, base := range []int{0, -2} {
		var st Stats
		require.NotPanics(t, func() { st = ComputeStats([]int{0, 1}, base) }, "base %d", base)
		assert.Zero(t, st.Length)
		assert.Empty(t, st.Frequency)
		assert.Empty(t, st.MostCommon)
	}
}

func TestRuns(t *testing.T) {
	assert.Equal(t, []Run{{Digit: 0, Length: 2, Position: 0}, {Digit: 9, Length: 2, Position: 4}}, Runs(digitsOf("00729927")))
	assert.Equal(t, []Run{{Digit: 3, Length: 4, Position: 1}, {Digit: 1, Length: 2, Position: 5}}, Runs(digitsOf("1333311")))
	assert.Empty(t, Runs(digitsOf("142857")))
	assert.Empty(t, Runs(nil))
}

func TestPalindromes(t *testing.T) {
	scan := Palindromes(digitsOf("00729927"))
	assert.False(t, scan.Full)
	assert.Equal(t, []Palindrome{{Digits: "729927", Position: 2, Length: 6}}, scan.Partial)

	full := Palindromes(digitsOf("1234321"))
	assert.True(t, full.Full)
	require.Len(t, full.Partial, 2)
	assert.Equal(t, "1234321", full.Partial[0].Digits)
	assert.Equal(t, "23432", full.Partial[1].Digits)

	assert.Len(t, Palindromes(make([]int, 40)).Partial, ScanLimit)
	assert.Equal(t, MaxPalindrome, maxLen(Palindromes(make([]int, 14)).Partial))
	assert.False(t, Palindromes(nil).Full)
}

func maxLen(ps []Palindrome) int {
	m := 0
	for _, p := range ps {
		m = max(m, p.Length)
	}
	return m
}

func TestArithmeticProgressions(t *testing.T) {
	e := reciprocal(t, 173)
	got := ArithmeticProgressions(e.Period)
	want := []Progression{{Position: 7, Digits: []int{4, 6, 8}, Difference: 2, Length: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progressions mismatch (-want +got):\n%s", diff)
	}

	got = ArithmeticProgressions(digitsOf("1234567890"))
	require.Len(t, got, ScanLimit)
	assert.Equal(t, []int{1, 2, 3}, got[0].Digits)
	assert.Equal(t, 7, got[4].Length)
	assert.Equal(t, 1, got[5].Position)

	assert.Empty(t, ArithmeticProgressions(digitsOf("00729927")))
	assert.Empty(t, ArithmeticProgressions(digitsOf("12")))
}

func TestFindSubsequences(t *testing.T) {
	got := FindSubsequences("00729927", catalog.Default().Targets())
	want := []SubsequenceMatch{
		{Value: 2, Positions: []int{3, 6}, Count: 2},
		{Value: 7, Positions: []int{2, 7}, Count: 2},
		{Value: 9, Positions: []int{4, 5}, Count: 2},
		{Value: 27, Positions: []int{6}, Count: 1},
		{Value: 29, Positions: []int{3}, Count: 1},
		{Value: 729, Positions: []int{2}, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subsequences mismatch (-want +got):\n%s", diff)
	}

	overlapping := FindSubsequences("1111", []int64{11, 5})
	assert.Equal(t, []SubsequenceMatch{{Value: 11, Positions: []int{0, 1, 2}, Count: 3}}, overlapping)
}

func TestModularMatches(t *testing.T) {
	got := ModularMatches(big.NewInt(729927), catalog.Default().ModularConstants())

	type row struct {
		name string
		rem  int64
		kind MatchKind
	}
	var rows []row
	for _, m := range got {
		rows = append(rows, row{m.Constant.QualifiedName(), m.Remainder, m.Kind})
	}
	want := []row{
		{"e8.dimension", 7, KindOneLess},
		{"e8.simple_roots", 7, KindOneLess},
		{"golay.binary_dimension", 22, KindOneLess},
		{"golay.binary_parity_bits", 0, KindDivisor},
		{"golay.extended_distance", 7, KindOneLess},
		{"golay.ternary_dimension", 0, KindDivisor},
		{"leech.covering_radius", 1, KindOneMore},
	}
	assert.Equal(t, want, rows)
}

func TestModularMatches_SkipsOutOfRange(t *testing.T) {
	cs := []catalog.Constant{{Name: "zero", Value: 0}, {Name: "big", Value: 696729600}, {Name: "neg", Value: -3}}
	assert.Empty(t, ModularMatches(big.NewInt(696729600), cs))
	assert.Empty(t, ModularMatches(nil, cs))
}

func TestConnections_137(t *testing.T) {
	got := Connections(big.NewInt(729927), 8, catalog.Default())
	var names []string
	for _, c := range got {
		names = append(names, string(c.Kind)+":"+c.Constant.QualifiedName())
	}
	assert.Equal(t, []string{
		"divides_period:golay.binary_parity_bits",
		"divides_period:golay.ternary_dimension",
		"equals_length:e8.dimension",
		"equals_length:e8.simple_roots",
		"equals_length:golay.extended_distance",
		"equals_length:powers_of_2.2^3",
	}, names)

	assert.Empty(t, Connections(big.NewInt(729927), 8, nil))
}

func TestProfile_KnownPeriods(t *testing.T) {
	tests := []struct {
		n    int64
		want Profile
	}{
		{137, Profile{
			N: 137, Base: 10, PeriodLength: 8, DigitSum: 36,
			BinaryOnes: 10, BinaryZeros: 10, TernaryLength: 13, OctalLength: 7, HexLength: 5,
			PeriodFactors: []int64{3, 3, 11, 73, 101}, DigitSumFactors: []int64{2, 2, 3, 3}, DigitSumHas3Squared: true,
			DigitSumDiv9: true, BinaryBalanced: true, Contains729: true,
		}},
		{92, Profile{
			N: 92, Base: 10, PeriodLength: 22, DigitSum: 99,
			BinaryOnes: 29, BinaryZeros: 41, TernaryLength: 44, OctalLength: 24, HexLength: 18,
			PeriodTooLarge: true, DigitSumFactors: []int64{3, 3, 11}, DigitSumHas3Squared: true,
			DigitSumDiv9: true, TernaryDoubles: true, Octal24: true, AllDigits: true,
		}},
		{173, Profile{
			N: 173, Base: 10, PeriodLength: 43, DigitSum: 207,
			BinaryOnes: 68, BinaryZeros: 68, TernaryLength: 86, OctalLength: 46, HexLength: 34,
			PeriodTooLarge: true, DigitSumFactors: []int64{3, 3, 23}, DigitSumHas3Squared: true,
			DigitSumDiv9: true, BinaryBalanced: true, TernaryDoubles: true, AllDigits: true,
		}},
	}
	for _, tt := range tests {
		got, err := ProfileOf(tt.n, 10)
		require.NoError(t, err)
		if diff := cmp.Diff(&tt.want, got); diff != "" {
			t.Errorf("ProfileOf(%d) mismatch (-want +got):\n%s", tt.n, diff)
		}
	}
}

func TestFactorize(t *testing.T) {
	tests := []struct {
		n    int64
		want []int64
	}{
		{0, []int64{}},
		{1, []int64{}},
		{2, []int64{2}},
		{36, []int64{2, 2, 3, 3}},
		{729, []int64{3, 3, 3, 3, 3, 3}},
		{729927, []int64{3, 3, 11, 73, 101}},
		{142857, []int64{3, 3, 3, 11, 13, 37}},
		{999999000001, []int64{999999000001}},
		{MaxFactorValue, []int64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}},
	}
	for _, tt := range tests {
		got, err := FactorizeInt(tt.n)
		require.NoError(t, err, "factorize %d", tt.n)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Factorize(%d) mismatch (-want +got):\n%s", tt.n, diff)
		}
	}
}

func TestFactorize_TooLarge(t *testing.T) {
	_, err := FactorizeInt(MaxFactorValue + 1)
	assert.ErrorIs(t, err, ErrTooLarge)

	period92, ok := new(big.Int).SetString("869565217391304347826", 10)
	require.True(t, ok)
	got, err := Factorize(period92, 0)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Nil(t, got, "no partial factorization")

	// 1000003 is prime: the budget runs out before sqrt is reached
	_, err = Factorize(big.NewInt(1000003), 10)
	assert.ErrorIs(t, err, ErrTooLarge)
	got, err = Factorize(big.NewInt(1000003), 2000)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000003}, got)

	assert.Equal(t, 2, Multiplicity([]int64{2, 3, 3, 5}, 3))
	assert.Zero(t, Multiplicity(nil, 3))
}

func TestProfile_TerminatingAndFlags(t *testing.T) {
	p, err := ProfileOf(8, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PeriodLength)
	for _, f := range Flags {
		assert.False(t, p.Has(f), f)
		assert.NotEmpty(t, f.Description())
	}

	p, err = ProfileOf(137, 10)
	require.NoError(t, err)
	assert.True(t, p.Has(FlagContains729))
	assert.False(t, p.Has(Flag("unknown")))

	_, err = ProfileOf(0, 10)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)
}

func TestCompareQuantities_DistinctMeasures(t *testing.T) {
	c, err := CompareQuantities(big.NewInt(92), 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 22, c.SourcePeriodLength)
	assert.Equal(t, 22, c.PeriodLengthInBase)
	assert.Equal(t, 44, c.RepresentationLength)
	assert.InDelta(t, 46.11, c.Expected, 0.01)
	assert.True(t, c.Doubles)

	c, err = CompareQuantities(big.NewInt(4), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, c.SourcePeriodLength)
	assert.Equal(t, 0, c.RepresentationLength)
	assert.False(t, c.Doubles)

	_, err = CompareQuantities(big.NewInt(0), 10, 3)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)
	_, err = CompareQuantities(big.NewInt(7), 10, 1)
	assert.ErrorIs(t, err, period.ErrInvalidBase)
}

func TestRational_FineStructureApproximation(t *testing.T) {
	r, err := Rational(big.NewInt(137036), big.NewInt(1000), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, "4", r.GCD)
	assert.Equal(t, "34259", r.ReducedNumerator)
	assert.Equal(t, "250", r.ReducedDenominator)
	assert.Equal(t, 34258, r.PeriodLength)
	assert.Equal(t, 154161, r.DigitSum)
	assert.True(t, r.Contains729)
	assert.Equal(t, "00729735252050556058", r.Reciprocal.PeriodString()[:20])
}

func TestRational_Integer(t *testing.T) {
	r, err := Rational(big.NewInt(137), big.NewInt(1), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, r.PeriodLength)
	assert.Equal(t, "00729927", r.Reciprocal.PeriodString())

	_, err = Rational(big.NewInt(0), big.NewInt(5), 10, 0)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)
	_, err = Rational(big.NewInt(3), big.NewInt(0), 10, 0)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)
}

func TestAnalyze(t *testing.T) {
	r := Analyze(reciprocal(t, 137), catalog.Default())
	assert.Equal(t, "1/137", r.Fraction)
	assert.Equal(t, "00729927", r.Period)
	assert.Equal(t, int64(729927), r.PeriodValue.Int64())
	assert.Len(t, r.Subsequences, 6)
	assert.Len(t, r.Modular, 7)
	assert.Len(t, r.Connections, 6)

	term := Analyze(reciprocal(t, 4), catalog.Default())
	assert.Equal(t, "0", term.Period)
	assert.Empty(t, term.Subsequences)
	assert.Empty(t, term.Runs)

	bare := Analyze(reciprocal(t, 7), nil)
	assert.Equal(t, 27, bare.Stats.DigitSum)
	assert.Empty(t, bare.Modular)
}
