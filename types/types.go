// Package types defines the shared data structures for level scripts.
// This package contains only type definitions and their trivial accessors.
package types

// Pseudo-levels share the header structure with ordinary levels but are
// never entered by play.
const (
	LevelRestore = -3 // restores parameters changed by earlier levels
	LevelDefault = -2 // applied before every other header
	LevelEnd     = -1 // end of game
)

// UnsetResource marks a command without a resource ID.
const UnsetResource = -32768

// NoSize marks a movie command without an explicit relative size.
const NoSize = -1.0

// Resource slot and kind holding the level-script document in a map file.
const (
	ScriptResourceKind = "TEXT"
	ScriptResourceID   = 128
)

// CommandKind selects how a command's payload is processed.
type CommandKind int

const (
	IncludeMarkup CommandKind = iota
	IncludeScript
	QueueMusic
	QueueMovie
)

func (k CommandKind) String() string {
	switch k {
	case IncludeMarkup:
		return "mml"
	case IncludeScript:
		return "script"
	case QueueMusic:
		return "music"
	case QueueMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// Command is a single level-script instruction.
type Command struct {
	Kind     CommandKind
	Resource int     // UnsetResource if absent
	File     string  // slash-separated, relative to the map file's directory
	Size     float64 // movies only; negative means "use the caller's default"
}

// HasResource reports whether the command names a resource ID.
func (c Command) HasResource() bool {
	return c.Resource != UnsetResource
}

// HasSize reports whether the command carries an explicit movie size.
func (c Command) HasSize() bool {
	return c.Size >= 0
}

// Header is the ordered command list for one level or pseudo-level.
type Header struct {
	Level       int
	Commands    []Command
	RandomOrder bool // music plays in random order
}

// EndScreens selects the end-of-game screens: the fake level index whose
// pictures are shown and how many consecutive pictures there are.
type EndScreens struct {
	Index int
	Count int
}

// DefaultEndScreens is the end-screen selection in effect before any map
// file overrides it.
var DefaultEndScreens = EndScreens{Index: 99, Count: 1}

// EventType classifies what happened to one command during a script pass.
type EventType string

const (
	EventMarkupLoaded   EventType = "markup_loaded"
	EventMarkupFailed   EventType = "markup_failed"
	EventScriptLoaded   EventType = "script_loaded"
	EventScriptFailed   EventType = "script_failed"
	EventScriptCleared  EventType = "script_cleared"
	EventTrackQueued    EventType = "track_queued"
	EventSkipped        EventType = "skipped"
	EventMapUnavailable EventType = "map_unavailable"
)

// Event records the outcome of a single command (or pass-level action).
type Event struct {
	Type   EventType
	Level  int
	Index  int // position within the header's command list, -1 for pass-level events
	Kind   CommandKind
	Detail string
}

// Report is the trace of one script run.
type Report struct {
	Level  int
	Events []Event
}

// Count returns how many events of the given type the report holds.
func (r Report) Count(t EventType) int {
	n := 0
	for _, e := range r.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// LevelName returns a display name for a level or pseudo-level.
func LevelName(level int) string {
	switch level {
	case LevelDefault:
		return "default"
	case LevelRestore:
		return "restore"
	case LevelEnd:
		return "end"
	}
	return "level"
}
