package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/sift/internal/post"
	"github.com/pders01/sift/internal/state"
)

// loadPage fetches the page named by req. The previous load, if still
// running, is cancelled; its result would be discarded anyway.
func (a *App) loadPage(req state.Request) tea.Cmd {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelLoad = cancel

	fetcher := a.fetcher
	return func() tea.Msg {
		defer cancel()
		batch, err := fetcher.Load(ctx, req.Page)
		return pageLoadedMsg{result: state.Result{Request: req, Batch: batch, Err: err}}
	}
}

// startLoad issues the load for req and keeps the spinner running until it
// lands.
func (a *App) startLoad(req state.Request) tea.Cmd {
	return tea.Batch(a.loadPage(req), a.spinner.Tick)
}

// waitForQuery blocks until the debouncer commits a query. The listener is
// re-armed after every commit and returns nil once the app is closed.
func (a *App) waitForQuery() tea.Cmd {
	queries, done := a.queries, a.done
	return func() tea.Msg {
		select {
		case q := <-queries:
			return queryCommittedMsg{query: q}
		case <-done:
			return nil
		}
	}
}

func postMarkdown(p post.Post) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", strings.TrimSpace(p.Title)))

	var meta []string
	if p.ID != "" {
		meta = append(meta, "Post #"+p.ID)
	}
	if p.UserID != 0 {
		meta = append(meta, fmt.Sprintf("User %d", p.UserID))
	}
	if len(meta) > 0 {
		content.WriteString("*" + strings.Join(meta, " · ") + "*\n\n")
	}

	content.WriteString("---\n\n")
	content.WriteString(strings.TrimSpace(p.Body))
	content.WriteString("\n")
	return content.String()
}

func (a *App) renderPost(p post.Post) tea.Cmd {
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return errorMsg{err: wrapErr("initializing renderer", err)}
		}

		rendered, err := r.Render(postMarkdown(p))
		if err != nil {
			return errorMsg{err: wrapErr("rendering post "+p.ID, err)}
		}

		return postRenderedMsg{id: p.ID, content: rendered}
	}
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
