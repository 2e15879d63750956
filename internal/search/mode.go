package search

import "strings"

// Mode selects which fields a query is matched against and how.
type Mode int

const (
	ModeTitle Mode = iota
	ModeFullText
	ModeFuzzy
)

var modes = []Mode{ModeTitle, ModeFullText, ModeFuzzy}

// Modes lists every mode in cycling order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// String returns the name used in config files and on the command line.
func (m Mode) String() string {
	switch m {
	case ModeFullText:
		return "full"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return "title"
	}
}

// Label is the human-readable name shown in the mode selector.
func (m Mode) Label() string {
	switch m {
	case ModeFullText:
		return "Full Text (Title + Body)"
	case ModeFuzzy:
		return "Fuzzy Search (Smart Match)"
	default:
		return "Title Only"
	}
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	switch m {
	case ModeTitle:
		return ModeFullText
	case ModeFullText:
		return ModeFuzzy
	default:
		return ModeTitle
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeTitle && m <= ModeFuzzy
}

// ParseMode maps a mode name to a Mode. Unknown names select ModeTitle.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "fulltext", "full-text":
		return ModeFullText
	case "fuzzy":
		return ModeFuzzy
	default:
		return ModeTitle
	}
}
