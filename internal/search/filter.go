package search

import "github.com/pders01/sift/internal/post"

// Match reports whether p satisfies query under mode. Modes outside the
// defined set behave like ModeTitle.
func Match(p post.Post, query string, mode Mode) bool {
	switch mode {
	case ModeFullText:
		return ContainsFold(p.Title, query) || ContainsFold(p.Body, query)
	case ModeFuzzy:
		return FuzzyMatch(p.Title, query)
	default:
		return ContainsFold(p.Title, query)
	}
}

// Filter returns the posts matching query, in their original order. The
// input slice is never modified; the result is always a new slice.
func Filter(posts []post.Post, query string, mode Mode) []post.Post {
	out := make([]post.Post, 0, len(posts))
	if query == "" {
		return append(out, posts...)
	}
	for _, p := range posts {
		if Match(p, query, mode) {
			out = append(out, p)
		}
	}
	return out
}
