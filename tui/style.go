package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the console.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleEchoInput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleOutput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleTrack = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindOutput lineKind = iota
	kindSystem
	kindHeading
	kindTrack
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is. system is set
// for console-command output.
func classifyLine(line string, system bool) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "error:"), strings.HasPrefix(line, "warning:"):
		return kindError
	case !system:
		return kindOutput
	case strings.HasPrefix(line, "Next track:"), strings.HasPrefix(line, "> "), strings.HasPrefix(line, "Movie:"):
		return kindTrack
	case strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " "):
		return kindHeading
	default:
		return kindSystem
	}
}

// renderLine applies the style for a given lineKind.
func renderLine(line string, kind lineKind) string {
	switch kind {
	case kindSystem:
		return styleSystem.Render(line)
	case kindHeading:
		return styleHeading.Render(line)
	case kindTrack:
		return styleTrack.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleOutput.Render(line)
	}
}
