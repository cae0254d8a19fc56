// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

// Package levenshtein calculates the Levenshtein edit distance between
// strings and picks the closest of a set of names.
package levenshtein

// Distance returns the minimum number of single-rune insertions, deletions
// or substitutions needed to turn str1 into str2. It uses O(min(m,n)) space.
func Distance(str1, str2 string) int {
	s1 := []rune(str1)
	s2 := []rune(str2)

	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	if len(s1) == 0 {
		return len(s2)
	}

	column := make([]int, len(s1)+1)
	for idx := range column {
		column[idx] = idx
	}

	for col, s2Rune := range s2 {
		column[0] = col + 1
		lastdiag := col

		for row, s1Rune := range s1 {
			olddiag := column[row+1]

			cost := 0
			if s1Rune != s2Rune {
				cost = 1
			}

			column[row+1] = min(
				column[row+1]+1,
				column[row]+1,
				lastdiag+cost,
			)
			lastdiag = olddiag
		}
	}

	return column[len(s1)]
}

// suggestDivisor bounds a suggestion to one edit per this many runes.
const suggestDivisor = 3

// Closest returns the candidate nearest to name, or false when even the
// nearest one needs more than a third of name's length in edits. Ties go
// to the earliest candidate.
func Closest(name string, candidates []string) (string, bool) {
	limit := max(1, len([]rune(name))/suggestDivisor)

	best, bestDist := "", limit+1

	for _, c := range candidates {
		d := Distance(name, c)
		if d < bestDist {
			best, bestDist = c, d
		}
	}

	return best, best != ""
}
