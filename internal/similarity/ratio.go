// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how alike two name keys are on a 0-100 scale.
package similarity

import "math"

// Func scores two strings from 0 (nothing in common) to 100 (identical).
type Func func(a, b string) int

// Ratio is the normalized indel similarity:
//
//	100 * (len(a) + len(b) - indel(a, b)) / (len(a) + len(b))
//
// where indel is the minimum number of single-rune insertions and deletions
// turning a into b. The result is rounded half to even. An empty operand
// scores 0. "jon doe" against "john doe" scores 93.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	indel := total - 2*lcs(ra, rb)
	return int(math.RoundToEven(100 * float64(total-indel) / float64(total)))
}

// IndelDistance returns the number of insertions and deletions needed to
// turn a into b.
func IndelDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	return len(ra) + len(rb) - 2*lcs(ra, rb)
}

// lcs returns the length of the longest common subsequence using two rows
// of the dynamic-programming table.
func lcs(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for j := 1; j <= len(b); j++ {
		curr[0] = 0
		for i := 1; i <= len(a); i++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[i] = prev[i-1] + 1
			case prev[i] >= curr[i-1]:
				curr[i] = prev[i]
			default:
				curr[i] = curr[i-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}
