// Package luamap hosts level scripts in a sandboxed Lua VM and exposes the
// world model to them.
package luamap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/mapscript/world"
)

// DefaultTimeout bounds a single Start or Exec call.
const DefaultTimeout = 2 * time.Second

// ErrNoScript is returned by Start when no level script is loaded.
var ErrNoScript = errors.New("no level script loaded")

// Host owns at most one Lua VM bound to a world. A VM holding a compiled
// level script is created by LoadScript; Exec creates a bare one on demand.
type Host struct {
	world   *world.World
	log     *slog.Logger
	timeout time.Duration

	L       *lua.LState
	chunk   *lua.LFunction
	started bool
	out     []string
}

// New creates a host for w with no script loaded.
func New(w *world.World, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{world: w, log: logger, timeout: DefaultTimeout}
}

// LoadScript replaces the active level script. An empty payload only clears
// it. A payload that fails to compile leaves no script active.
func (h *Host) LoadScript(data []byte) error {
	h.Close()
	if len(data) == 0 {
		h.log.Debug("lua: script cleared")
		return nil
	}

	L := h.newState()
	fn, err := L.Load(bytes.NewReader(data), "level_script")
	if err != nil {
		L.Close()
		return fmt.Errorf("compiling level script: %w", err)
	}
	h.L, h.chunk = L, fn
	h.log.Debug("lua: script loaded", "bytes", len(data))
	return nil
}

// Start runs the loaded script's main chunk once and returns what it
// printed.
func (h *Host) Start() ([]string, error) {
	if h.chunk == nil {
		return nil, ErrNoScript
	}
	if h.started {
		return nil, nil
	}
	h.started = true

	h.L.Push(h.chunk)
	if err := h.call(0); err != nil {
		return h.drain(), fmt.Errorf("running level script: %w", err)
	}
	return h.drain(), nil
}

// Exec runs a statement or expression in the active VM. Expression values
// are returned as strings after anything the statement printed.
func (h *Host) Exec(src string) ([]string, error) {
	if h.L == nil {
		h.L = h.newState()
	}

	fn, err := h.L.Load(strings.NewReader("return "+src), "console")
	if err != nil {
		fn, err = h.L.Load(strings.NewReader(src), "console")
		if err != nil {
			return nil, err
		}
	}

	top := h.L.GetTop()
	h.L.Push(fn)
	if err := h.call(lua.MultRet); err != nil {
		h.L.SetTop(top)
		return h.drain(), err
	}
	for i := top + 1; i <= h.L.GetTop(); i++ {
		h.out = append(h.out, h.L.ToStringMeta(h.L.Get(i)).String())
	}
	h.L.SetTop(top)
	return h.drain(), nil
}

// Active reports whether a level script is loaded.
func (h *Host) Active() bool {
	return h.chunk != nil
}

// Started reports whether the loaded script's main chunk has run.
func (h *Host) Started() bool {
	return h.started
}

// World returns the world scripts are bound to.
func (h *Host) World() *world.World {
	return h.world
}

// Close discards the VM and the loaded script.
func (h *Host) Close() {
	if h.L != nil {
		h.L.Close()
	}
	h.L, h.chunk, h.started, h.out = nil, nil, false, nil
}

func (h *Host) call(nret int) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	return h.L.PCall(0, nret, nil)
}

func (h *Host) drain() []string {
	out := h.out
	h.out = nil
	return out
}

func (h *Host) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		h.out = append(h.out, strings.Join(parts, "\t"))
		return 0
	}))

	bind(L, h.world)
	if err := L.DoString(compatibility); err != nil {
		h.log.Warn("lua: compatibility functions failed", "error", err)
	}
	return L
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "module", "require",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}
