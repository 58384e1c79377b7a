// Package registry holds the level-script headers of the currently loaded
// map file, keyed by level.
package registry

import "github.com/nathoo/mapscript/types"

// Registry is the set of headers parsed from one map file. Headers keep the
// order in which their levels were first referenced.
type Registry struct {
	headers    []*types.Header
	EndScreens types.EndScreens
}

// New returns an empty registry with default end screens.
func New() *Registry {
	return &Registry{EndScreens: types.DefaultEndScreens}
}

// Header returns the first header registered for level, or nil.
func (r *Registry) Header(level int) *types.Header {
	for _, h := range r.headers {
		if h.Level == level {
			return h
		}
	}
	return nil
}

// LocateOrCreate returns the header for level, appending an empty one if the
// level has not been seen yet.
func (r *Registry) LocateOrCreate(level int) *types.Header {
	if h := r.Header(level); h != nil {
		return h
	}
	h := &types.Header{Level: level}
	r.headers = append(r.headers, h)
	return h
}

// Headers returns the registered headers in registration order.
func (r *Registry) Headers() []*types.Header {
	out := make([]*types.Header, len(r.headers))
	copy(out, r.headers)
	return out
}

// Len returns the number of registered headers.
func (r *Registry) Len() int {
	return len(r.headers)
}

// Commands returns the commands of the given kind for level, in order.
func (r *Registry) Commands(level int, kind types.CommandKind) []types.Command {
	h := r.Header(level)
	if h == nil {
		return nil
	}
	var out []types.Command
	for _, c := range h.Commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
