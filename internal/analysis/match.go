package analysis

import (
	"math/big"
	"strconv"
	"strings"

	"repetend/internal/catalog"
)

// SubsequenceMatch lists where a target's decimal string occurs.
type SubsequenceMatch struct {
	Value     int64 `json:"value"`
	Positions []int `json:"positions"`
	Count     int   `json:"count"`
}

// FindSubsequences returns, in target order, every target whose decimal
// string occurs in digits, with all (possibly overlapping) positions.
func FindSubsequences(digits string, targets []int64) []SubsequenceMatch {
	out := []SubsequenceMatch{}
	for _, t := range targets {
		needle := strconv.FormatInt(t, 10)
		var positions []int
		for from := 0; from <= len(digits)-len(needle); {
			i := strings.Index(digits[from:], needle)
			if i < 0 {
				break
			}
			positions = append(positions, from+i)
			from += i + 1
		}
		if len(positions) > 0 {
			out = append(out, SubsequenceMatch{Value: t, Positions: positions, Count: len(positions)})
		}
	}
	return out
}

// MatchKind classifies a modular relationship.
type MatchKind string

const (
	KindDivisor MatchKind = "perfect_divisor"
	KindOneMore MatchKind = "one_more_than_multiple"
	KindOneLess MatchKind = "one_less_than_multiple"
)

// ModularMatch records value mod constant when it is 0, 1 or constant-1.
type ModularMatch struct {
	Constant  catalog.Constant `json:"constant"`
	Remainder int64            `json:"remainder"`
	Kind      MatchKind        `json:"kind"`
}

// ModularMatches checks value against each constant c with
// 0 < c < catalog.MaxTarget. A remainder of 1 is reported as KindOneMore
// even when c == 2.
func ModularMatches(value *big.Int, constants []catalog.Constant) []ModularMatch {
	out := []ModularMatch{}
	if value == nil {
		return out
	}
	m := new(big.Int)
	r := new(big.Int)
	for _, c := range constants {
		if c.Value <= 0 || c.Value >= catalog.MaxTarget {
			continue
		}
		m.SetInt64(c.Value)
		rem := r.Mod(value, m).Int64()
		var kind MatchKind
		switch {
		case rem == 0:
			kind = KindDivisor
		case rem == 1:
			kind = KindOneMore
		case rem == c.Value-1:
			kind = KindOneLess
		default:
			continue
		}
		out = append(out, ModularMatch{Constant: c, Remainder: rem, Kind: kind})
	}
	return out
}

// ConnectionKind classifies a structural connection.
type ConnectionKind string

const (
	// ConnDivides means the period value is a multiple of the constant.
	ConnDivides ConnectionKind = "divides_period"
	// ConnLength means the period length equals the constant.
	ConnLength ConnectionKind = "equals_length"
)

// Connection ties a catalog constant to the period.
type Connection struct {
	Kind     ConnectionKind   `json:"kind"`
	Constant catalog.Constant `json:"constant"`
}

// Connections reports modular constants dividing the period value and any
// constant equal to the period length.
func Connections(value *big.Int, length int, cat *catalog.Catalog) []Connection {
	out := []Connection{}
	if cat == nil {
		return out
	}
	if value != nil && value.Sign() > 0 {
		for _, m := range ModularMatches(value, cat.ModularConstants()) {
			if m.Kind == KindDivisor && m.Constant.Value > 1 {
				out = append(out, Connection{Kind: ConnDivides, Constant: m.Constant})
			}
		}
	}
	if length > 0 {
		for _, c := range cat.Constants() {
			if c.Value == int64(length) {
				out = append(out, Connection{Kind: ConnLength, Constant: c})
			}
		}
	}
	return out
}
