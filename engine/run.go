package engine

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/nathoo/mapscript/resource"
	"github.com/nathoo/mapscript/types"
)

// pass selects which commands a header replay honors.
type pass int

const (
	levelPass pass = iota // entering a level: everything but movies
	auxPass               // end and restore: no playlist changes, no script tracking
)

// runHeader replays the commands of one header, in order. A missing header
// is not an error; Default-only behavior falls out of it.
func (e *Engine) runHeader(level int, p pass, rep *types.Report) {
	h := e.reg.Header(level)
	if h == nil {
		return
	}

	// The most specific header processed decides the order.
	if p == levelPass {
		e.playlist.SetRandom(h.RandomOrder)
	}

	f, err := e.locator.Open(e.mapFile)
	if err != nil {
		e.log.Debug("level scripts: map file unavailable", "map", e.mapFile, "error", err)
		rep.Events = append(rep.Events, types.Event{
			Type: types.EventMapUnavailable, Level: level, Index: -1, Detail: err.Error(),
		})
		return
	}

	for i, cmd := range h.Commands {
		ev := types.Event{Level: level, Index: i, Kind: cmd.Kind}

		switch cmd.Kind {
		case types.IncludeMarkup:
			data, ok := e.payload(f, cmd)
			if !ok {
				ev.Type, ev.Detail = types.EventSkipped, "payload not found"
				break
			}
			if err := e.markup.LoadMarkup(data); err != nil {
				e.log.Warn("level scripts: markup failed", "level", level, "command", i, "error", err)
				ev.Type, ev.Detail = types.EventMarkupFailed, err.Error()
				break
			}
			ev.Type = types.EventMarkupLoaded

		case types.IncludeScript:
			data, ok := e.payload(f, cmd)
			if !ok {
				ev.Type, ev.Detail = types.EventSkipped, "payload not found"
				break
			}
			if err := e.scripts.LoadScript(data); err != nil {
				e.log.Warn("level scripts: script failed", "level", level, "command", i, "error", err)
				ev.Type, ev.Detail = types.EventScriptFailed, err.Error()
				break
			}
			if p == levelPass {
				e.scriptFound = true
			}
			ev.Type = types.EventScriptLoaded

		case types.QueueMusic:
			if p != levelPass {
				continue
			}
			path, ok := e.resolveFile(cmd.File)
			if !ok {
				ev.Type, ev.Detail = types.EventSkipped, "no such file: "+cmd.File
				break
			}
			e.playlist.Add(path)
			ev.Type, ev.Detail = types.EventTrackQueued, path

		default:
			// Movies are resolved by FindLevelMovie and FindEndMovie.
			continue
		}

		rep.Events = append(rep.Events, ev)
	}
}

// payload returns the bytes a markup or script command refers to: the
// TEXT resource if it exists, else the file next to the map file.
func (e *Engine) payload(f resource.File, cmd types.Command) ([]byte, bool) {
	if cmd.HasResource() {
		data, err := f.Get(types.ScriptResourceKind, cmd.Resource)
		switch {
		case err == nil && len(data) > 0:
			return data, true
		case err != nil && !errors.Is(err, resource.ErrNotFound):
			e.log.Debug("level scripts: resource unreadable", "id", cmd.Resource, "error", err)
		}
	}

	path, ok := e.resolveFile(cmd.File)
	if !ok {
		return nil, false
	}
	data, err := afero.ReadFile(e.fs, path)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// resolveFile joins a slash-separated path onto the map file's directory
// and reports whether a regular file exists there.
func (e *Engine) resolveFile(rel string) (string, bool) {
	if rel == "" {
		return "", false
	}
	path := filepath.Join(e.mapDir, filepath.FromSlash(rel))
	fi, err := e.fs.Stat(path)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return path, true
}
