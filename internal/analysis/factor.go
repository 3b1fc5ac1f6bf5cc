package analysis

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	// MaxFactorValue is the largest integer Factorize attempts; trial
	// division below it needs at most a million steps.
	MaxFactorValue = 1_000_000_000_000
	// DefaultFactorSteps is the trial-division budget used when none is given.
	DefaultFactorSteps = 1_000_000
)

// ErrTooLarge is returned when a number is above MaxFactorValue or its
// factorization does not finish within the step budget. No partial
// factorization is returned with it.
var ErrTooLarge = errors.New("too large to factor")

// Factorize returns the prime factors of n in ascending order, with
// multiplicity, by trial division. n <= 1 has no factors. maxSteps bounds
// the number of trial divisors; maxSteps <= 0 selects DefaultFactorSteps.
func Factorize(n *big.Int, maxSteps int) ([]int64, error) {
	if n == nil || n.Cmp(big.NewInt(1)) <= 0 {
		return []int64{}, nil
	}
	if n.Cmp(big.NewInt(MaxFactorValue)) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds %d", ErrTooLarge, n.String(), int64(MaxFactorValue))
	}
	if maxSteps <= 0 {
		maxSteps = DefaultFactorSteps
	}

	rest := n.Int64()
	factors := []int64{}
	steps := 0
	for d := int64(2); d*d <= rest; d++ {
		if steps == maxSteps {
			return nil, fmt.Errorf("%w: %s not factored within %d steps", ErrTooLarge, n.String(), maxSteps)
		}
		steps++
		for rest%d == 0 {
			factors = append(factors, d)
			rest /= d
		}
	}
	if rest > 1 {
		factors = append(factors, rest)
	}
	return factors, nil
}

// FactorizeInt is Factorize for machine-sized values with the default budget.
func FactorizeInt(n int64) ([]int64, error) {
	return Factorize(big.NewInt(n), 0)
}

// Multiplicity counts how often p occurs in factors.
func Multiplicity(factors []int64, p int64) int {
	k := 0
	for _, f := range factors {
		if f == p {
			k++
		}
	}
	return k
}
