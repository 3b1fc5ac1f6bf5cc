// Package periodtest provides assertions on period.Expansion values for use
// in tests of packages built on the extractor.
package periodtest

import (
	"math/big"

	"github.com/stretchr/testify/assert"

	"repetend/internal/period"
)

// AssertPeriodIdentity asserts that e satisfies every invariant checked by
// Verify and, for periodic expansions, that its period length is the
// multiplicative order of the base modulo the coprime residual.
func AssertPeriodIdentity(t assert.TestingT, e *period.Expansion) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if !assert.NotNil(t, e, "expansion") {
		return false
	}
	if !assert.NoError(t, e.Verify(), "verify %s in base %d", e.String(), e.Base) {
		return false
	}
	if e.Terminates {
		return true
	}
	residual := period.CoprimeResidual(e.ReducedDenominator(), e.Base)
	order, err := period.MultiplicativeOrder(e.Base, residual, 0)
	if !assert.NoError(t, err, "multiplicative order of %d mod %s", e.Base, residual.String()) {
		return false
	}
	return assert.Equal(t, order, e.Length(), "period length of %s in base %d", e.String(), e.Base)
}

// AssertExpansion asserts the rendered pre-period and period of e.
func AssertExpansion(t assert.TestingT, e *period.Expansion, wantPre, wantPeriod string) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if !assert.NotNil(t, e, "expansion") {
		return false
	}
	ok := assert.Equal(t, wantPre, e.PrePeriodString(), "pre-period")
	if wantPeriod == "" {
		return assert.True(t, e.Terminates, "expected terminating expansion, got period %q", e.PeriodString()) && ok
	}
	return assert.Equal(t, wantPeriod, e.PeriodString(), "period") && ok
}

// AssertStable asserts that re-extracting with a larger bound reproduces e.
func AssertStable(t assert.TestingT, e *period.Expansion, largerBound int) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	again, err := period.Extract(new(big.Int).Set(e.Numerator), new(big.Int).Set(e.Denominator), e.Base, largerBound)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.True(t, e.Equal(again), "bound %d changed %s into %s", largerBound, e.String(), again.String())
}
