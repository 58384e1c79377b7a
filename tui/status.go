package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// statusText returns the left and right halves of the status line: map
// and level on the left, music and script state on the right.
func (m Model) statusText() (string, string) {
	eng := m.session.Engine

	level := "no level"
	if l, ok := m.session.LastLevel(); ok {
		level = fmt.Sprintf("level %d", l)
	}
	left := fmt.Sprintf(" %s | %s", mapName(eng.MapFile()), level)

	var right []string
	if p := eng.Playlist(); p.Active() {
		music := fmt.Sprintf("%d track(s)", p.Len())
		if p.Random() {
			music += " shuffled"
		}
		right = append(right, music)
	}
	switch host := m.session.Host; {
	case host.Started():
		right = append(right, "script running")
	case host.Active():
		right = append(right, "script loaded")
	}
	if m.session.Trace {
		right = append(right, "trace")
	}
	return left, strings.Join(right, " | ") + " "
}

// renderStatusBar produces a full-width inverted status line.
func (m Model) renderStatusBar() string {
	left, right := m.statusText()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
