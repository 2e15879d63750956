package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/sift/internal/config"
)

type keyMap struct {
	Quit      key.Binding
	Search    key.Binding
	Back      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	CycleMode key.Binding
	Reload    key.Binding
	Open      key.Binding
	Up        key.Binding
	Down      key.Binding
	Help      key.Binding
}

// newKeyMap builds the bindings from the [keys] config table. Reload and
// CycleMode take the configured modifier; the rest are plain keys with
// arrow-key and vim aliases.
func newKeyMap(cfg config.KeyConfig) keyMap {
	mod := cfg.Modifier + "+"
	b := cfg.Bindings

	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys(uniq(b.Quit, "ctrl+c")...),
			key.WithHelp(b.Quit, "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys(b.Search),
			key.WithHelp(b.Search, "search"),
		),
		Back: key.NewBinding(
			key.WithKeys(b.Back),
			key.WithHelp(b.Back, "back"),
		),
		NextPage: key.NewBinding(
			key.WithKeys(uniq(b.NextPage, "right", "l")...),
			key.WithHelp(b.NextPage+"/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys(uniq(b.PrevPage, "left", "h")...),
			key.WithHelp(b.PrevPage+"/←", "prev page"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys(uniq("tab", mod+b.CycleMode)...),
			key.WithHelp("tab", "mode"),
		),
		Reload: key.NewBinding(
			key.WithKeys(mod+b.Reload),
			key.WithHelp(mod+b.Reload, "reload"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "read"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
	}
}

func uniq(keys ...string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// postsKeys is the help.KeyMap for the post list.
type postsKeys struct{ keyMap }

func (k postsKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.CycleMode, k.PrevPage, k.NextPage, k.Open, k.Help, k.Quit}
}

func (k postsKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.PrevPage, k.NextPage, k.Reload},
		{k.Search, k.CycleMode, k.Back},
		{k.Help, k.Quit},
	}
}

// readerKeys is the help.KeyMap for the reader view.
type readerKeys struct{ keyMap }

func (k readerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back, k.Quit}
}

func (k readerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
