// Package loader reads the level-script document out of a map file and
// builds the registry of per-level headers from it.
package loader

import (
	"errors"
	"fmt"

	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/resource"
	"github.com/nathoo/mapscript/types"
)

// Locator opens map files.
type Locator interface {
	Open(path string) (resource.File, error)
}

// Load reads the level-script document from its reserved resource slot in
// mapFile and parses it. A missing map file or a map file without the
// document yields an empty registry and no error. The returned registry is
// never nil.
func Load(loc Locator, mapFile string) (*registry.Registry, error) {
	f, err := loc.Open(mapFile)
	if err != nil {
		if errors.Is(err, resource.ErrNoManifest) {
			return registry.New(), nil
		}
		return registry.New(), fmt.Errorf("loading level scripts: %w", err)
	}

	data, err := f.Get(types.ScriptResourceKind, types.ScriptResourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return registry.New(), nil
		}
		return registry.New(), fmt.Errorf("loading level scripts: %w", err)
	}

	return Parse(data)
}
