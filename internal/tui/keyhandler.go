package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/debuglog"
	"github.com/pders01/sift/internal/state"
)

// KeyHandler routes key presses to the search input, the app's own
// bindings, or the focused Charm component.
type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

// HandleKey dispatches msg for the active view and focus.
func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewPosts && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.quit()
	case "esc":
		kh.app.searchInput.Blur()
		return kh.app, nil
	case "enter":
		// Skip the rest of the quiet period.
		kh.app.searchInput.Blur()
		if q, ok := kh.app.debouncer.Take(); ok {
			kh.app.state.CommitQuery(q)
			kh.app.refreshList()
		}
		return kh.app, nil
	case "tab":
		return kh.cycleMode()
	case "down":
		kh.app.searchInput.Blur()
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput passes the key to the search input and schedules a
// debounced commit when the query changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	newVal := sanitizeSearchInput(kh.app.searchInput.Value(), kh.config.Search.MaxQueryLength)
	if newVal != kh.app.state.Query() {
		kh.app.state.SetQuery(newVal)
		kh.app.debouncer.Trigger(newVal)
	}
	return kh.app, cmd
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	keys := kh.app.keys

	switch {
	case key.Matches(msg, keys.Quit):
		model, cmd := kh.quit()
		return model, cmd, true
	case key.Matches(msg, keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	if kh.app.view == ViewReader {
		return kh.app, nil, false
	}

	switch {
	case key.Matches(msg, keys.Search):
		cmd := kh.app.searchInput.Focus()
		return kh.app, cmd, true
	case key.Matches(msg, keys.CycleMode):
		model, cmd := kh.cycleMode()
		return model, cmd, true
	case key.Matches(msg, keys.NextPage):
		req, ok := kh.app.state.NextPage()
		return kh.app, kh.load(req, ok), true
	case key.Matches(msg, keys.PrevPage):
		req, ok := kh.app.state.PrevPage()
		return kh.app, kh.load(req, ok), true
	case key.Matches(msg, keys.Reload):
		req := kh.app.state.Reload()
		kh.app.reloadSeq = req.Seq
		return kh.app, kh.load(req, true), true
	case key.Matches(msg, keys.Help):
		kh.app.help.ShowAll = !kh.app.help.ShowAll
		return kh.app, nil, true
	case key.Matches(msg, keys.Open):
		model, cmd := kh.openSelected()
		return model, cmd, true
	}

	return kh.app, nil, false
}

func (kh *KeyHandler) load(req state.Request, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	kh.app.err = nil
	debuglog.Debugf("requesting page %d (seq %d)", req.Page, req.Seq)
	return kh.app.startLoad(req)
}

func (kh *KeyHandler) cycleMode() (tea.Model, tea.Cmd) {
	mode := kh.app.state.CycleMode()
	kh.app.refreshList()
	kh.app.status = statusLine{kind: StatusInfo, text: mode.Label()}
	return kh.app, nil
}

func (kh *KeyHandler) openSelected() (tea.Model, tea.Cmd) {
	item, ok := kh.app.postList.SelectedItem().(postItem)
	if !ok {
		return kh.app, nil
	}

	p := item.post
	kh.app.currentPost = &p
	kh.app.rendering = true
	kh.app.view = ViewReader
	kh.app.viewport.SetContent("")
	return kh.app, tea.Batch(kh.app.spinner.Tick, kh.app.renderPost(p))
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewPosts:
		kh.app.postList, cmd = kh.app.postList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack leaves the reader, then clears an active query.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewReader:
		kh.app.view = ViewPosts
		kh.app.currentPost = nil
		kh.app.rendering = false
		return kh.app, nil

	default:
		if kh.app.state.Query() != "" || kh.app.state.CommittedQuery() != "" {
			kh.app.debouncer.Cancel()
			kh.app.searchInput.Reset()
			kh.app.state.SetQuery("")
			kh.app.state.CommitQuery("")
			kh.app.refreshList()
		}
		kh.app.err = nil
		return kh.app, nil
	}
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.Close()
	return kh.app, tea.Quit
}

// sanitizeSearchInput sanitizes and limits search input length
func sanitizeSearchInput(input string, limit int) string {
	input = strings.Join(strings.Fields(input), " ")

	if limit > 0 {
		if r := []rune(input); len(r) > limit {
			input = strings.TrimSpace(string(r[:limit]))
		}
	}
	return input
}
