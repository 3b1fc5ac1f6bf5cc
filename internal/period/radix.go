package period

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// MaxTextBase is the largest base whose digits have a single-character form.
const MaxTextBase = len(alphabet)

// ToBase converts a non-negative integer to its digits in base, most
// significant first. Zero is the single digit 0.
func ToBase(value *big.Int, base int) ([]int, error) {
	if base < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	if value == nil || value.Sign() == 0 {
		return []int{0}, nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeValue, value.String())
	}

	// big.Int.Text is subquadratic for the bases it supports.
	if base <= MaxTextBase {
		text := value.Text(base)
		digits := make([]int, len(text))
		for i := 0; i < len(text); i++ {
			digits[i] = strings.IndexByte(alphabet, text[i])
		}
		return digits, nil
	}

	b := big.NewInt(int64(base))
	n := new(big.Int).Set(value)
	r := new(big.Int)
	var rev []int
	for n.Sign() > 0 {
		n.QuoRem(n, b, r)
		rev = append(rev, int(r.Int64()))
	}
	digits := make([]int, len(rev))
	for i, d := range rev {
		digits[len(rev)-1-i] = d
	}
	return digits, nil
}

// FromDigits interprets digits (most significant first) as an integer in base.
func FromDigits(digits []int, base int) (*big.Int, error) {
	if base < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	b := big.NewInt(int64(base))
	v := new(big.Int)
	d := new(big.Int)
	for i, digit := range digits {
		if digit < 0 || digit >= base {
			return nil, fmt.Errorf("digit %d at position %d out of range for base %d", digit, i, base)
		}
		v.Mul(v, b)
		v.Add(v, d.SetInt64(int64(digit)))
	}
	return v, nil
}

// RepresentationLength is the number of base-b digits needed to write value.
// It says nothing about periods: see PeriodLength for that quantity.
func RepresentationLength(value *big.Int, base int) (int, error) {
	digits, err := ToBase(value, base)
	if err != nil {
		return 0, err
	}
	return len(digits), nil
}

// FormatDigits renders digits with the 0-9a-z alphabet. Digits beyond the
// alphabet are written as decimal numbers in brackets, e.g. "[40]".
func FormatDigits(digits []int) string {
	var sb strings.Builder
	sb.Grow(len(digits))
	for _, d := range digits {
		if d >= 0 && d < MaxTextBase {
			sb.WriteByte(alphabet[d])
			continue
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(d))
		sb.WriteByte(']')
	}
	return sb.String()
}

// ParseDigits parses a digit string in base. Leading zeros are accepted and
// carry no value, so "00729927" parses to 729927.
func ParseDigits(s string, base int) (*big.Int, error) {
	if base < 2 || base > MaxTextBase {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	if s == "" {
		return nil, fmt.Errorf("empty digit string")
	}
	v, ok := new(big.Int).SetString(strings.ToLower(s), base)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid base-%d digit string %q", base, s)
	}
	return v, nil
}
