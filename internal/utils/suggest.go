// Package utils holds small string helpers used for "did you mean" hints and
// id lookup.
package utils

import (
	"sort"
	"strings"
)

// ComputeDistance computes the Levenshtein distance between two strings.
// It is case-insensitive and works on runes.
func ComputeDistance(s1, s2 string) int {
	a := []rune(strings.ToLower(s1))
	b := []rune(strings.ToLower(s2))
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rolling rows are enough.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Suggest returns the candidate closest to target within maxDistance, or ""
// when nothing is close enough. Ties resolve to the lexicographically
// smallest candidate so suggestions are stable.
func Suggest(target string, candidates []string, maxDistance int) string {
	best := ""
	bestDist := maxDistance + 1
	for _, c := range candidates {
		if c == target {
			continue
		}
		d := ComputeDistance(target, c)
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	if bestDist > maxDistance {
		return ""
	}
	return best
}

// FuzzyMatch checks if source is a fuzzy match of target: the characters of
// source appear in target in the same order. Case-insensitive.
func FuzzyMatch(source, target string) bool {
	src := []rune(strings.ToLower(source))
	if len(src) == 0 {
		return true
	}
	i := 0
	for _, r := range strings.ToLower(target) {
		if r == src[i] {
			i++
			if i == len(src) {
				return true
			}
		}
	}
	return false
}

// FuzzyFilter returns the candidates that fuzzy-match query, sorted.
func FuzzyFilter(query string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if FuzzyMatch(query, c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
