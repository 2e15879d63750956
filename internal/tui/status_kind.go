package tui

// StatusKind selects the style of the status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// statusLine is a transient message shown in the status bar until the next
// page load or query commit.
type statusLine struct {
	kind StatusKind
	text string
}

func (s statusLine) empty() bool {
	return s.text == ""
}
