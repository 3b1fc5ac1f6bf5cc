// Package analysis computes statistics and pattern scans over the repeating
// block of an expansion: digit frequencies, runs, palindromes, arithmetic
// progressions, embedded reference constants and modular relationships.
//
// Every function is pure and works on digit slices produced by the period
// package, so any base is accepted.
package analysis

import (
	"math"
	"sort"

	"repetend/internal/period"
)

const (
	// MinPalindrome and MaxPalindrome bound partial palindrome lengths.
	MinPalindrome = 5
	MaxPalindrome = 14
	// MinProgression and MaxProgression bound arithmetic progression lengths.
	MinProgression = 3
	MaxProgression = 7
	// ScanLimit caps the palindrome and progression lists.
	ScanLimit = 10
)

// DigitCount pairs a digit with its number of occurrences.
type DigitCount struct {
	Digit int `json:"digit"`
	Count int `json:"count"`
}

// Stats summarizes the digit distribution of a sequence.
type Stats struct {
	Length int `json:"length"`
	// Frequency is indexed by digit and sized to the base.
	Frequency      []int        `json:"frequency"`
	MostCommon     []DigitCount `json:"most_common"`
	LeastCommon    []DigitCount `json:"least_common,omitempty"`
	Mean           float64      `json:"mean"`
	Variance       float64      `json:"variance"`
	Entropy        float64      `json:"entropy_bits"`
	DigitSum       int          `json:"digit_sum"`
	DigitSumMod9   int          `json:"digit_sum_mod_9"`
	Distinct       int          `json:"distinct"`
	AllDigitsShown bool         `json:"all_digits_present"`
}

// ComputeStats summarizes digits written in base. Variance is the
// population variance; entropy is in bits. Values outside [0, base) are
// not digits of base and are ignored throughout, as is every value when
// base < 1.
func ComputeStats(digits []int, base int) Stats {
	valid := make([]int, 0, len(digits))
	for _, d := range digits {
		if d >= 0 && d < base {
			valid = append(valid, d)
		}
	}
	digits = valid

	s := Stats{Length: len(digits), Frequency: make([]int, max(base, 0))}
	if len(digits) == 0 {
		s.MostCommon = []DigitCount{}
		return s
	}

	firstSeen := make(map[int]int)
	for i, d := range digits {
		s.Frequency[d]++
		if _, ok := firstSeen[d]; !ok {
			firstSeen[d] = i
		}
		s.DigitSum += d
	}
	s.DigitSumMod9 = s.DigitSum % 9
	s.Distinct = len(firstSeen)
	s.AllDigitsShown = s.Distinct == base

	n := float64(len(digits))
	s.Mean = float64(s.DigitSum) / n
	for _, d := range digits {
		dev := float64(d) - s.Mean
		s.Variance += dev * dev
	}
	s.Variance /= n

	ranked := make([]DigitCount, 0, len(firstSeen))
	for d := range firstSeen {
		ranked = append(ranked, DigitCount{Digit: d, Count: s.Frequency[d]})
	}
	// ties keep first-occurrence order
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Digit] < firstSeen[ranked[j].Digit]
	})
	for _, dc := range ranked {
		p := float64(dc.Count) / n
		s.Entropy -= p * math.Log2(p)
	}
	s.MostCommon = ranked[:min(3, len(ranked))]
	if len(ranked) >= 3 {
		s.LeastCommon = ranked[len(ranked)-3:]
	}
	return s
}

// Run is a maximal block of one repeated digit.
type Run struct {
	Digit    int `json:"digit"`
	Length   int `json:"length"`
	Position int `json:"position"`
}

// Runs returns every maximal run of length >= 2, in order.
func Runs(digits []int) []Run {
	runs := []Run{}
	for i := 0; i < len(digits); {
		j := i + 1
		for j < len(digits) && digits[j] == digits[i] {
			j++
		}
		if j-i >= 2 {
			runs = append(runs, Run{Digit: digits[i], Length: j - i, Position: i})
		}
		i = j
	}
	return runs
}

// Palindrome is a palindromic window of the sequence.
type Palindrome struct {
	Digits   string `json:"digits"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
}

// PalindromeScan reports whether the whole sequence reads the same reversed
// and lists the first partial palindromes found.
type PalindromeScan struct {
	Full    bool         `json:"full"`
	Partial []Palindrome `json:"partial"`
}

// Palindromes scans windows of MinPalindrome..MaxPalindrome digits by start
// position, then length, stopping after ScanLimit hits.
func Palindromes(digits []int) PalindromeScan {
	scan := PalindromeScan{Full: len(digits) > 0 && isPalindrome(digits), Partial: []Palindrome{}}
	for start := 0; start+MinPalindrome <= len(digits); start++ {
		for end := start + MinPalindrome; end <= min(start+MaxPalindrome, len(digits)); end++ {
			w := digits[start:end]
			if !isPalindrome(w) {
				continue
			}
			scan.Partial = append(scan.Partial, Palindrome{
				Digits:   period.FormatDigits(w),
				Position: start,
				Length:   len(w),
			})
			if len(scan.Partial) == ScanLimit {
				return scan
			}
		}
	}
	return scan
}

func isPalindrome(d []int) bool {
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		if d[i] != d[j] {
			return false
		}
	}
	return true
}

// Progression is a window whose consecutive digits differ by a constant.
type Progression struct {
	Position   int   `json:"position"`
	Digits     []int `json:"digits"`
	Difference int   `json:"difference"`
	Length     int   `json:"length"`
}

// ArithmeticProgressions scans windows of MinProgression..MaxProgression
// digits by start position, then length, stopping after ScanLimit hits.
// Constant windows count, with difference 0.
func ArithmeticProgressions(digits []int) []Progression {
	out := []Progression{}
	for start := 0; start+MinProgression <= len(digits); start++ {
		for length := MinProgression; length <= MaxProgression && start+length <= len(digits); length++ {
			w := digits[start : start+length]
			diff := w[1] - w[0]
			ok := true
			for i := 2; i < len(w); i++ {
				if w[i]-w[i-1] != diff {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			out = append(out, Progression{
				Position:   start,
				Digits:     append([]int(nil), w...),
				Difference: diff,
				Length:     length,
			})
			if len(out) == ScanLimit {
				return out
			}
		}
	}
	return out
}
