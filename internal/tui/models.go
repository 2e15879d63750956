package tui

import (
	"github.com/pders01/sift/internal/state"
)

type View int

const (
	ViewPosts View = iota
	ViewReader
)

type pageLoadedMsg struct {
	result state.Result
}

type queryCommittedMsg struct {
	query string
}

type postRenderedMsg struct {
	id      string
	content string
}

type errorMsg struct {
	err error
}
