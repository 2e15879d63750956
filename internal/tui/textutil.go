package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// truncateEnd shortens s to at most limit terminal cells, ending with an
// ellipsis when anything was cut. Styled input keeps its escape sequences.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= limit {
		return s
	}
	return ansi.Truncate(s, limit, ellipsis)
}

// truncateMiddle keeps both ends of s and puts the ellipsis in between.
// Used for URLs, where the host and the last path segment both matter.
// Expects plain text.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= limit {
		return s
	}
	if limit == 1 {
		return ellipsis
	}

	keep := limit - 1
	left := ansi.Truncate(s, keep-keep/2, "")

	r := []rune(s)
	var right []rune
	width := 0
	for i := len(r) - 1; i >= 0; i-- {
		w := ansi.StringWidth(string(r[i]))
		if width+w > keep/2 {
			break
		}
		width += w
		right = append([]rune{r[i]}, right...)
	}
	return left + ellipsis + string(right)
}

// singleLine folds newlines and runs of spaces so text fits a list row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
