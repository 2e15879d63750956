package tui

import (
	"fmt"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingPosts  = "Loading posts..."
	MsgRenderingPost = "Rendering post…"
	MsgNoPosts       = "No posts on this page"
	MsgNoMatches     = "No posts match"
	MsgSearchHint    = "Search posts..."
)

// MsgPage is the 1-based page label.
func MsgPage(page int) string {
	return fmt.Sprintf("Page %d", page+1)
}

func MsgVisibleCount(visible, total int) string {
	if visible == total {
		if total == 1 {
			return "1 post"
		}
		return fmt.Sprintf("%d posts", total)
	}
	return fmt.Sprintf("%d of %d posts", visible, total)
}

// MsgKeptBatch follows a failed load while the previous posts stay on screen.
const MsgKeptBatch = "Offline, showing previous posts"

func MsgKeptBatchStatus(code int) string {
	return fmt.Sprintf("HTTP %d, showing previous posts", code)
}

func MsgReloaded(page int) string {
	return fmt.Sprintf("Reloaded page %d", page+1)
}

func MsgError(text string) string {
	return "Error: " + text
}
