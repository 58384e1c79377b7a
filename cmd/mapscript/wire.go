package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/nathoo/mapscript/audio"
	"github.com/nathoo/mapscript/cli"
	"github.com/nathoo/mapscript/config"
	"github.com/nathoo/mapscript/engine"
	"github.com/nathoo/mapscript/loader"
	"github.com/nathoo/mapscript/luamap"
	"github.com/nathoo/mapscript/mml"
	"github.com/nathoo/mapscript/world"
)

// appFs is the filesystem every command reads from.
var appFs = afero.NewOsFs()

// app is one loaded map with its collaborators wired together.
type app struct {
	cfg     config.Config
	world   *world.World
	host    *luamap.Host
	player  *audio.Player
	engine  *engine.Engine
	loadErr error // non-nil when the scripts loaded only partly, or not at all
}

// newApp loads the configuration, the world state and the level scripts.
// Logs go to logOut.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := cfg.Logger(logOut)

	w := world.New(strings.TrimSuffix(filepath.Base(cfg.MapFile), filepath.Ext(cfg.MapFile)))
	if cfg.WorldFile != "" {
		if w, err = world.Load(appFs, cfg.WorldFile); err != nil {
			return nil, err
		}
	}

	markup := mml.New(log)
	markup.Handle("fog", world.FogHandler(w))
	host := luamap.New(w, log)
	player := audio.NewPlayer(appFs, log)

	eng := engine.New(engine.Options{
		Fs:      appFs,
		Markup:  markup,
		Scripts: host,
		Music:   player,
		FadeOut: cfg.FadeOut,
		Logger:  log,
	})

	a := &app{cfg: cfg, world: w, host: host, player: player, engine: eng}
	a.loadErr = eng.LoadLevelScripts(cfg.MapFile)
	return a, nil
}

// warn prints the load error, if any, the way the console prints warnings.
func (a *app) warn(out io.Writer) {
	if a.loadErr == nil {
		return
	}
	var pe *loader.ParseError
	if errors.As(a.loadErr, &pe) {
		for _, msg := range pe.Errors {
			fmt.Fprintf(out, "warning: %s\n", msg)
		}
		return
	}
	fmt.Fprintf(out, "warning: %v\n", a.loadErr)
}

func (a *app) session() *cli.Session {
	s := cli.NewSession(a.engine, a.host, a.player)
	s.DefaultMovieSize = a.cfg.DefaultMovieSize
	s.Trace = a.cfg.Trace
	return s
}

func (a *app) Close() {
	a.host.Close()
}
