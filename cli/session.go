package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/mapscript/audio"
	"github.com/nathoo/mapscript/engine"
	"github.com/nathoo/mapscript/engine/playlist"
	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/luamap"
	"github.com/nathoo/mapscript/types"
	"github.com/nathoo/mapscript/world"
)

// Output is the result of one console input.
type Output struct {
	Lines  []string
	System bool // console-command output rather than script output
	Quit   bool
}

// Session is the console state shared by the plain and full-screen
// front ends: an engine, the Lua host it loads scripts into, and an
// optional music player.
type Session struct {
	Engine           *engine.Engine
	Host             *luamap.Host
	Player           *audio.Player
	DefaultMovieSize float64
	Trace            bool
	lastInput        string
	lastLevel        *int
}

// NewSession creates a session. player may be nil.
func NewSession(eng *engine.Engine, host *luamap.Host, player *audio.Player) *Session {
	return &Session{Engine: eng, Host: host, Player: player, DefaultMovieSize: 1}
}

// LastLevel returns the level entered last with /run, if any.
func (s *Session) LastLevel() (int, bool) {
	if s.lastLevel == nil {
		return 0, false
	}
	return *s.lastLevel, true
}

// Handle processes one line of input. Lines starting with '/' are console
// commands; anything else is Lua run in the active script VM.
func (s *Session) Handle(input string) Output {
	input = strings.TrimSpace(input)
	if input == "" {
		return Output{}
	}

	// "again" / "g" repeats the last input.
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if s.lastInput == "" {
			return Output{Lines: []string{"Nothing to repeat."}, System: true}
		}
		input = s.lastInput
	} else {
		s.lastInput = input
	}

	if strings.HasPrefix(input, "/") {
		return s.handleMeta(input)
	}

	lines, err := s.Host.Exec(input)
	if err != nil {
		lines = append(lines, "error: "+err.Error())
	}
	return Output{Lines: lines}
}

func (s *Session) handleMeta(input string) Output {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	out := Output{System: true}
	switch cmd {
	case "/quit", "/exit":
		out.Lines, out.Quit = []string{"Goodbye."}, true
	case "/help":
		out.Lines = helpLines()
	case "/levels":
		out.Lines = FormatHeaders(s.Engine.Registry())
	case "/run":
		out.Lines = s.cmdRun(arg)
	case "/end":
		out.Lines = s.report(s.Engine.RunEndScript())
	case "/restore":
		out.Lines = s.report(s.Engine.RunRestorationScript())
	case "/start":
		out.Lines = s.cmdStart()
	case "/next":
		out.Lines = s.cmdNext()
	case "/playlist":
		out.Lines = FormatPlaylist(s.Engine.Playlist())
	case "/movie":
		out.Lines = s.cmdMovie(arg)
	case "/endmovie":
		s.Engine.FindEndMovie()
		out.Lines = s.movieLines()
	case "/screens":
		es := s.Engine.EndScreens()
		out.Lines = []string{fmt.Sprintf("End screens: index %d, count %d", es.Index, es.Count)}
	case "/reload":
		out.Lines = s.cmdReload()
	case "/state":
		out.Lines = s.cmdState()
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			out.Lines = []string{"Trace output enabled."}
		} else {
			out.Lines = []string{"Trace output disabled."}
		}
	default:
		out.Lines = []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}
	}
	return out
}

func (s *Session) cmdRun(arg string) []string {
	level, err := strconv.Atoi(arg)
	if err != nil || level < 0 {
		return []string{"Usage: /run <level>"}
	}
	rep := s.Engine.RunLevelScript(level)
	s.lastLevel = &level

	lines := s.report(rep)
	if s.Host.Active() {
		lines = append(lines, "Level script loaded. Type /start to run it.")
	}
	return lines
}

func (s *Session) cmdStart() []string {
	lines, err := s.Host.Start()
	switch {
	case errors.Is(err, luamap.ErrNoScript):
		return []string{"No level script loaded."}
	case err != nil:
		return append(lines, "error: "+err.Error())
	case len(lines) == 0:
		return []string{"Level script started."}
	}
	return lines
}

func (s *Session) cmdNext() []string {
	track, ok := s.Engine.NextTrack()
	if !ok {
		return []string{"No level music."}
	}
	lines := []string{"Next track: " + track}
	if s.Player != nil {
		if err := s.Player.Play(track); err != nil {
			lines = append(lines, "error: "+err.Error())
		}
	}
	return lines
}

func (s *Session) cmdMovie(arg string) []string {
	if arg == "end" {
		s.Engine.FindEndMovie()
		return s.movieLines()
	}
	level, err := strconv.Atoi(arg)
	if err != nil || level < 0 {
		return []string{"Usage: /movie <level>"}
	}
	s.Engine.FindLevelMovie(level)
	return s.movieLines()
}

func (s *Session) movieLines() []string {
	file, size, ok := s.Engine.GetLevelMovie(s.DefaultMovieSize)
	if !ok {
		return []string{"No movie."}
	}
	return []string{fmt.Sprintf("Movie: %s (size %g)", file, size)}
}

func (s *Session) cmdReload() []string {
	err := s.Engine.Reload()
	lines := []string{fmt.Sprintf("Reloaded %s: %d header(s).", s.Engine.MapFile(), s.Engine.Registry().Len())}
	if err != nil {
		lines = append(lines, "warning: "+err.Error())
	}
	return lines
}

func (s *Session) cmdState() []string {
	w := s.Host.World()
	lines := []string{
		fmt.Sprintf("Map: %s", s.Engine.MapFile()),
		fmt.Sprintf("Level: %s", w.Name),
		fmt.Sprintf("Script: loaded=%v started=%v found=%v", s.Host.Active(), s.Host.Started(), s.Engine.ScriptFound()),
		"Fog: " + formatFog(w.Fog),
		"Underwater fog: " + formatFog(w.UnderwaterFog),
		fmt.Sprintf("Lights: %d/%d active", countActive(w.Lights, func(l world.Light) bool { return l.Active }), len(w.Lights)),
		fmt.Sprintf("Tags: %d/%d active", countActive(w.Tags, func(t world.Tag) bool { return t.Active }), len(w.Tags)),
		fmt.Sprintf("Polygons: %d, platforms: %d, annotations: %d", len(w.Polygons), len(w.Platforms), len(w.Annotations)),
	}
	if s.Player != nil && s.Player.Playing() != "" {
		lines = append(lines, "Playing: "+s.Player.Playing())
	}
	return lines
}

func (s *Session) report(rep types.Report) []string {
	lines := []string{Summarize(rep)}
	if s.Trace {
		lines = append(lines, FormatReport(rep)...)
	}
	return lines
}

// Summarize condenses a script run into one line.
func Summarize(rep types.Report) string {
	return fmt.Sprintf("Ran %s: %d markup, %d script, %d track(s), %d skipped",
		levelLabel(rep.Level),
		rep.Count(types.EventMarkupLoaded),
		rep.Count(types.EventScriptLoaded),
		rep.Count(types.EventTrackQueued),
		rep.Count(types.EventSkipped))
}

// FormatReport renders every event of a script run as a trace line.
func FormatReport(rep types.Report) []string {
	lines := make([]string, 0, len(rep.Events))
	for _, e := range rep.Events {
		where := levelLabel(e.Level)
		if e.Index >= 0 {
			where = fmt.Sprintf("%s #%d %s", where, e.Index, e.Kind)
		}
		line := fmt.Sprintf("[trace] %s: %s", where, e.Type)
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		lines = append(lines, line)
	}
	return lines
}

// FormatHeaders lists the registered headers.
func FormatHeaders(reg *registry.Registry) []string {
	headers := reg.Headers()
	if len(headers) == 0 {
		return []string{"No level scripts."}
	}
	lines := make([]string, 0, len(headers)+1)
	for _, h := range headers {
		line := fmt.Sprintf("%-10s %2d command(s)", levelLabel(h.Level), len(h.Commands))
		if h.RandomOrder {
			line += ", random order"
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("End screens: index %d, count %d", reg.EndScreens.Index, reg.EndScreens.Count))
	return lines
}

// FormatPlaylist lists the tracks of p, marking the cursor.
func FormatPlaylist(p *playlist.Playlist) []string {
	tracks := p.Tracks()
	if len(tracks) == 0 {
		return []string{"No level music."}
	}
	order := "sequential"
	if p.Random() {
		order = "random"
	}
	lines := []string{fmt.Sprintf("%d track(s), %s order", len(tracks), order)}
	for i, t := range tracks {
		mark := "  "
		if i == p.Cursor() {
			mark = "> "
		}
		lines = append(lines, mark+t)
	}
	return lines
}

func levelLabel(level int) string {
	if level >= 0 {
		return fmt.Sprintf("level %d", level)
	}
	return types.LevelName(level)
}

func formatFog(f world.Fog) string {
	if !f.Present {
		return "off"
	}
	return fmt.Sprintf("depth %g, color %d/%d/%d, landscapes %v",
		f.Depth, f.Color.Red, f.Color.Green, f.Color.Blue, f.AffectsLandscapes)
}

func countActive[T any](items []T, active func(T) bool) int {
	n := 0
	for _, it := range items {
		if active(it) {
			n++
		}
	}
	return n
}

func helpLines() []string {
	return []string{
		"Level scripts:",
		"  /levels       List the headers of the loaded map",
		"  /run <n>      Run the level script of level n",
		"  /end          Run the end-of-game script",
		"  /restore      Run the restoration script",
		"  /start        Run the loaded Lua level script",
		"  /reload       Re-read the map file",
		"",
		"Music and movies:",
		"  /playlist     Show the level playlist",
		"  /next         Advance to the next track",
		"  /movie <n>    Resolve the movie for level n",
		"  /endmovie     Resolve the end-of-game movie",
		"  /screens      Show the end-screen selection",
		"",
		"System:",
		"  /state        Dump world and script state",
		"  /trace        Toggle per-command trace output",
		"  /help         Show this help",
		"  /quit         Exit",
		"",
		"Anything else runs as Lua in the level script VM.",
		"  again (g)     Repeat your last input",
	}
}
