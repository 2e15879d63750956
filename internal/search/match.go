package search

import "strings"

// ContainsFold reports whether substr occurs in s, ignoring case. An empty
// substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FuzzyMatch reports whether the runes of pattern appear in text in order,
// not necessarily adjacent. Both sides are lower-cased first. An empty
// pattern always matches.
func FuzzyMatch(text, pattern string) bool {
	if pattern == "" {
		return true
	}

	p := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == p[i] {
			i++
			if i == len(p) {
				return true
			}
		}
	}
	return false
}
