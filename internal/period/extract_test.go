package period_test

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repetend/internal/period"
	"repetend/internal/period/periodtest"
)

func TestExtract_KnownValues(t *testing.T) {
	tests := []struct {
		name       string
		p, q       int64
		base       int
		wantPre    string
		wantPeriod string // "" means terminating
		wantLen    int
	}{
		{"1/137", 1, 137, 10, "", "00729927", 8},
		{"1/92", 1, 92, 10, "01", "0869565217391304347826", 22},
		{"1/173", 1, 173, 10, "", "0057803468208092485549132947976878612716763", 43},
		{"1/4", 1, 4, 10, "25", "", 0},
		{"1/4 base 2", 1, 4, 2, "01", "", 0},
		{"1/92 base 3", 1, 92, 3, "", "0000212202211121010211", 22},
		{"1/7", 1, 7, 10, "", "142857", 6},
		{"1/12", 1, 12, 10, "08", "3", 1},
		{"1/6", 1, 6, 10, "1", "6", 1},
		{"1/12 base 2", 1, 12, 2, "00", "01", 2},
		{"3/4", 3, 4, 10, "75", "", 0},
		{"2/4 unreduced", 2, 4, 10, "5", "", 0},
		{"1/3 base 16", 1, 3, 16, "", "5", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := period.ExtractInt(tt.p, tt.q, tt.base, 0)
			require.NoError(t, err)

			periodtest.AssertExpansion(t, e, tt.wantPre, tt.wantPeriod)
			assert.Equal(t, tt.wantLen, e.Length())
			assert.Equal(t, len(tt.wantPre), e.Offset())
			assert.Equal(t, tt.wantPeriod == "", e.Terminates)
			periodtest.AssertPeriodIdentity(t, e)
		})
	}
}

func TestExtract_TerminatingHasEmptyPeriod(t *testing.T) {
	e, err := period.ExtractInt(1, 4, 10, 0)
	require.NoError(t, err)

	assert.True(t, e.Terminates)
	assert.Empty(t, e.Period)
	assert.Equal(t, 2, e.Offset())
	assert.Equal(t, "25", e.PrePeriodString())
	assert.Equal(t, "0", e.PeriodString(), "terminating period renders as the historical 0")
	assert.Equal(t, "0.25", e.String())
}

func TestExtract_IntegerPartAndSign(t *testing.T) {
	e, err := period.ExtractInt(22, 7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "3.(142857)", e.String())
	assert.Equal(t, int64(3), e.IntegerPart.Int64())

	neg, err := period.ExtractInt(-1, 3, 10, 0)
	require.NoError(t, err)
	assert.True(t, neg.Negative)
	assert.Equal(t, "-0.(3)", neg.String())

	whole, err := period.ExtractInt(5, 1, 10, 0)
	require.NoError(t, err)
	assert.True(t, whole.Terminates)
	assert.Equal(t, "5", whole.String())

	zero, err := period.ExtractInt(0, 5, 10, 0)
	require.NoError(t, err)
	assert.True(t, zero.Terminates)
	assert.Equal(t, 0, zero.Offset())
	assert.Equal(t, "0", zero.String())
}

func TestExtract_ArbitraryPrecisionDenominator(t *testing.T) {
	// 10^21 - 1 has period 000...001 of length 21.
	q := new(big.Int).Sub(new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil), big.NewInt(1))

	e, err := period.Extract(big.NewInt(1), q, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 21, e.Length())
	assert.Equal(t, "000000000000000000001", e.PeriodString())
	periodtest.AssertPeriodIdentity(t, e)
}

func TestExtract_Errors(t *testing.T) {
	_, err := period.ExtractInt(1, 0, 10, 0)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)

	_, err = period.ExtractInt(1, -3, 10, 0)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)

	_, err = period.Extract(big.NewInt(1), nil, 10, 0)
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)

	for _, base := range []int{-2, 0, 1} {
		_, err = period.ExtractInt(1, 7, base, 0)
		assert.ErrorIs(t, err, period.ErrInvalidBase, "base %d", base)
	}
}

func TestExtract_BoundExhausted(t *testing.T) {
	e, err := period.ExtractInt(1, 173, 10, 10)
	assert.Nil(t, e, "no partial result on bound exhaustion")
	require.ErrorIs(t, err, period.ErrPeriodNotFound)

	var be *period.BoundError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 10, be.MaxDigits)
	assert.Equal(t, "1/173", be.Fraction)
	assert.Equal(t, 10, be.Base)
}

func TestExpansion_CheckBoundAgreesWithExtract(t *testing.T) {
	for _, tc := range []struct {
		p, q int64
		base int
	}{{1, 173, 10}, {1, 92, 10}, {1, 4, 10}, {5, 12, 2}, {22, 7, 10}} {
		full, err := period.ExtractInt(tc.p, tc.q, tc.base, 0)
		require.NoError(t, err)
		for bound := 1; bound <= 60; bound++ {
			_, extractErr := period.ExtractInt(tc.p, tc.q, tc.base, bound)
			checkErr := full.CheckBound(bound)
			assert.Equal(t, extractErr == nil, checkErr == nil, "%d/%d base %d bound %d", tc.p, tc.q, tc.base, bound)
			if checkErr != nil {
				assert.ErrorIs(t, checkErr, period.ErrPeriodNotFound)
				assert.Equal(t, extractErr.Error(), checkErr.Error())
			}
		}
		assert.NoError(t, full.CheckBound(0), "default bound always covers %d/%d", tc.p, tc.q)
	}
}

func TestExtract_BoundEdges(t *testing.T) {
	// Exactly period-length digits are enough: the repeat is seen before
	// another digit would be produced.
	_, err := period.ExtractInt(1, 173, 10, 42)
	assert.ErrorIs(t, err, period.ErrPeriodNotFound)

	e, err := period.ExtractInt(1, 173, 10, 43)
	require.NoError(t, err)
	assert.Equal(t, 43, e.Length())

	_, err = period.ExtractInt(1, 4, 10, 1)
	assert.ErrorIs(t, err, period.ErrPeriodNotFound)

	e, err = period.ExtractInt(1, 4, 10, 2)
	require.NoError(t, err)
	assert.True(t, e.Terminates)
}

func TestExtract_BoundSensitivity(t *testing.T) {
	for _, q := range []int64{7, 92, 137, 173, 997, 1024} {
		var resolved *period.Expansion
		for bound := 1; bound <= 1100; bound += 7 {
			e, err := period.ExtractInt(1, q, 10, bound)
			if err != nil {
				require.ErrorIs(t, err, period.ErrPeriodNotFound, "q=%d bound=%d", q, bound)
				require.Nil(t, resolved, "q=%d: bound %d lost a resolved result", q, bound)
				continue
			}
			if resolved == nil {
				resolved = e
				continue
			}
			require.True(t, resolved.Equal(e), "q=%d: bound %d changed %s to %s", q, bound, resolved, e)
		}
		require.NotNil(t, resolved, "q=%d never resolved", q)
		periodtest.AssertStable(t, resolved, 5000)
	}
}

func TestExtract_DefaultBoundAlwaysResolves(t *testing.T) {
	for q := int64(1); q <= 2000; q++ {
		e, err := period.Reciprocal(q, 10)
		require.NoError(t, err, "1/%d", q)
		require.NoError(t, e.Verify(), "1/%d", q)
	}
}

func TestExtract_PeriodIdentityGrid(t *testing.T) {
	for base := 2; base <= 16; base++ {
		for q := int64(1); q <= 300; q++ {
			e, err := period.Reciprocal(q, base)
			require.NoError(t, err)
			if !periodtest.AssertPeriodIdentity(t, e) {
				t.Fatalf("identity failed for 1/%d base %d", q, base)
			}
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	first, err := period.ExtractInt(1, 173, 10, 0)
	require.NoError(t, err)
	second, err := period.ExtractInt(1, 173, 10, 0)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Period, second.Period); diff != "" {
		t.Errorf("period mismatch (-first +second):\n%s", diff)
	}
	assert.True(t, first.Equal(second))

	// An unrelated call in between must not leak state into the next one.
	_, err = period.ExtractInt(5, 12, 2, 0)
	require.NoError(t, err)
	third, err := period.ExtractInt(1, 173, 10, 0)
	require.NoError(t, err)
	assert.True(t, first.Equal(third))
}

func TestExtract_ParallelCallsAgree(t *testing.T) {
	want, err := period.ExtractInt(1, 92, 10, 0)
	require.NoError(t, err)

	const workers = 32
	results := make([]*period.Expansion, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := period.ExtractInt(1, 92, 10, 0)
			if err == nil {
				results[i] = e
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		require.NotNil(t, got, "worker %d", i)
		assert.True(t, want.Equal(got), "worker %d", i)
	}
}

func TestExpansion_DigitsCycles(t *testing.T) {
	e, err := period.ExtractInt(1, 12, 10, 0)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{0, 8, 3, 3, 3, 3}, e.Digits(6)); diff != "" {
		t.Errorf("Digits(6) mismatch (-want +got):\n%s", diff)
	}

	e, err = period.ExtractInt(1, 7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "142857142857142", period.FormatDigits(e.Digits(15)))

	term, err := period.ExtractInt(1, 8, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "12500", period.FormatDigits(term.Digits(5)))
	assert.Equal(t, "1", period.FormatDigits(term.Digits(1)))
	assert.Empty(t, term.Digits(0))
}

func TestExpansion_PeriodValue(t *testing.T) {
	e, err := period.Reciprocal(137, 10)
	require.NoError(t, err)
	assert.Equal(t, "729927", e.PeriodValue().String())

	term, err := period.Reciprocal(4, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), term.PeriodValue().Int64())
}

func TestParseFraction(t *testing.T) {
	p, q, err := period.ParseFraction("137036/1000")
	require.NoError(t, err)
	assert.Equal(t, "137036", p.String())
	assert.Equal(t, "1000", q.String())

	p, q, err = period.ParseFraction("7")
	require.NoError(t, err)
	assert.Equal(t, "7", p.String())
	assert.Equal(t, "1", q.String())

	_, _, err = period.ParseFraction("1/0")
	assert.ErrorIs(t, err, period.ErrInvalidDenominator)

	_, _, err = period.ParseFraction("x/3")
	assert.Error(t, err)
}
