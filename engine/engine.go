// Package engine runs a map file's level scripts: it layers the Default
// header under level-specific headers, feeds markup and script payloads to
// their loaders, builds the level playlist and resolves level movies.
package engine

import (
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/nathoo/mapscript/engine/movie"
	"github.com/nathoo/mapscript/engine/playlist"
	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/loader"
	"github.com/nathoo/mapscript/resource"
	"github.com/nathoo/mapscript/types"
)

// DefaultFadeOut is how long the previous level's music takes to fade.
const DefaultFadeOut = 500 * time.Millisecond

// MarkupLoader applies a document in the engine's main configuration grammar.
type MarkupLoader interface {
	LoadMarkup(data []byte) error
}

// ScriptLoader installs a level script. A nil or empty payload clears the
// active script.
type ScriptLoader interface {
	LoadScript(data []byte) error
}

// MusicPlayer is the music side of a level transition.
type MusicPlayer interface {
	FadeOut(d time.Duration)
	Preload(tracks []string)
}

// Options wires an Engine to its collaborators. Nil fields get defaults:
// the OS filesystem, a resource locator over it, no-op loaders and player,
// and the wall clock.
type Options struct {
	Fs      afero.Fs
	Locator loader.Locator
	Markup  MarkupLoader
	Scripts ScriptLoader
	Music   MusicPlayer
	Clock   func() int64
	FadeOut time.Duration
	Logger  *slog.Logger
}

// Engine owns the level-script state of one loaded map file. It is not safe
// for concurrent use.
type Engine struct {
	fs      afero.Fs
	locator loader.Locator
	markup  MarkupLoader
	scripts ScriptLoader
	music   MusicPlayer
	clock   func() int64
	fadeOut time.Duration
	log     *slog.Logger

	reg      *registry.Registry
	rng      *RNG
	playlist *playlist.Playlist
	movie    movie.Selection

	mapFile     string
	mapDir      string
	scriptFound bool
}

// New creates an engine with an empty registry.
func New(opts Options) *Engine {
	e := &Engine{
		fs:      opts.Fs,
		locator: opts.Locator,
		markup:  opts.Markup,
		scripts: opts.Scripts,
		music:   opts.Music,
		clock:   opts.Clock,
		fadeOut: opts.FadeOut,
		log:     opts.Logger,
		reg:     registry.New(),
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.locator == nil {
		e.locator = resource.NewLocator(e.fs)
	}
	if e.markup == nil {
		e.markup = nopMarkup{}
	}
	if e.scripts == nil {
		e.scripts = nopScripts{}
	}
	if e.music == nil {
		e.music = nopMusic{}
	}
	if e.clock == nil {
		e.clock = func() int64 { return time.Now().UnixNano() }
	}
	if e.fadeOut <= 0 {
		e.fadeOut = DefaultFadeOut
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.rng = NewRNG(e.clock())
	e.playlist = playlist.New(e.rng)
	return e
}

// LoadLevelScripts replaces the registry with the scripts of mapFile. The
// registry is replaced even when an error is returned: a *loader.ParseError
// means some elements were rejected and the rest are in effect.
func (e *Engine) LoadLevelScripts(mapFile string) error {
	e.mapFile = mapFile
	e.mapDir = filepath.Dir(mapFile)

	reg, err := loader.Load(e.locator, mapFile)
	e.reg = reg

	var pe *loader.ParseError
	switch {
	case errors.As(err, &pe):
		e.log.Warn("level scripts: elements rejected", "map", mapFile, "count", len(pe.Errors))
		for _, msg := range pe.Errors {
			e.log.Debug("level scripts: rejected", "map", mapFile, "error", msg)
		}
	case err != nil:
		e.log.Warn("level scripts: load failed", "map", mapFile, "error", err)
	default:
		e.log.Debug("level scripts: loaded", "map", mapFile, "headers", reg.Len())
	}
	return err
}

// Reload re-reads the scripts of the current map file.
func (e *Engine) Reload() error {
	return e.LoadLevelScripts(e.mapFile)
}

// RunLevelScript performs the level-script part of entering a level: it
// rebuilds the playlist, loads markup and scripts from Default and then from
// the level's own header, and prepares the level's music.
func (e *Engine) RunLevelScript(level int) types.Report {
	rep := types.Report{Level: level}

	e.scriptFound = false
	e.playlist.Clear()
	e.music.FadeOut(e.fadeOut)

	e.runHeader(types.LevelDefault, levelPass, &rep)
	e.runHeader(level, levelPass, &rep)

	e.playlist.Rewind()
	e.rng.Reseed(e.clock())

	if !e.scriptFound {
		if err := e.scripts.LoadScript(nil); err != nil {
			e.log.Warn("level scripts: clearing script failed", "level", level, "error", err)
		}
		rep.Events = append(rep.Events, types.Event{Type: types.EventScriptCleared, Level: level, Index: -1})
	}

	e.music.Preload(e.playlist.Tracks())
	return rep
}

// RunEndScript applies Default and then the End pseudo-level. The playlist
// and the script-found flag are left untouched.
func (e *Engine) RunEndScript() types.Report {
	return e.runAux(types.LevelEnd)
}

// RunRestorationScript applies Default and then the Restore pseudo-level,
// returning parameters changed by level scripts to their map defaults.
func (e *Engine) RunRestorationScript() types.Report {
	return e.runAux(types.LevelRestore)
}

func (e *Engine) runAux(level int) types.Report {
	rep := types.Report{Level: level}
	e.runHeader(types.LevelDefault, auxPass, &rep)
	e.runHeader(level, auxPass, &rep)
	return rep
}

// FindLevelMovie resolves the movie shown before level.
func (e *Engine) FindLevelMovie(level int) {
	e.findMovie(level)
}

// FindEndMovie resolves the movie shown at the end of the game.
func (e *Engine) FindEndMovie() {
	e.findMovie(types.LevelEnd)
}

func (e *Engine) findMovie(level int) {
	e.movie.Reset()
	for _, l := range []int{types.LevelDefault, level} {
		for _, cmd := range e.reg.Commands(l, types.QueueMovie) {
			path, ok := e.resolveFile(cmd.File)
			if !ok {
				continue
			}
			e.movie.Offer(path, cmd.Size)
		}
	}
}

// GetLevelMovie returns the movie found by the last Find call. size is the
// movie's own relative size when it declared one, def otherwise.
func (e *Engine) GetLevelMovie(def float64) (file string, size float64, ok bool) {
	return e.movie.Get(def)
}

// NextTrack returns the next track of the level playlist.
func (e *Engine) NextTrack() (string, bool) {
	return e.playlist.Next()
}

// IsLevelMusicActive reports whether the current level has music queued.
func (e *Engine) IsLevelMusicActive() bool {
	return e.playlist.Active()
}

// StopLevelMusic empties the level playlist.
func (e *Engine) StopLevelMusic() {
	e.playlist.Stop()
}

// Playlist exposes the level playlist for inspection.
func (e *Engine) Playlist() *playlist.Playlist {
	return e.playlist
}

// EndScreens returns the end-of-game screen selection of the loaded map.
func (e *Engine) EndScreens() types.EndScreens {
	return e.reg.EndScreens
}

// ScriptFound reports whether the last level run loaded a script.
func (e *Engine) ScriptFound() bool {
	return e.scriptFound
}

// MapFile returns the map file whose scripts are loaded.
func (e *Engine) MapFile() string {
	return e.mapFile
}

// Registry returns the loaded headers.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}
