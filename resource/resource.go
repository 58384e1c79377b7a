// Package resource locates typed, numbered resources inside a map file.
//
// A map file is kept unpacked: a TOML manifest lists every resource either
// inline or as a path relative to the manifest itself.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned by File.Get for an absent resource.
	ErrNotFound = errors.New("resource not found")
	// ErrNoManifest is returned by Open when the map file does not exist.
	ErrNoManifest = errors.New("map file not found")
)

// Entry is one row of a map file's resource table.
type Entry struct {
	Type string `toml:"type"`
	ID   int    `toml:"id"`
	Path string `toml:"path,omitempty"`
	Text string `toml:"text,omitempty"`
}

// Manifest is the decoded form of a map file.
type Manifest struct {
	Name      string  `toml:"name"`
	Resources []Entry `toml:"resource"`
}

// File is an opened map file.
type File interface {
	Get(kind string, id int) ([]byte, error)
}

// Locator opens map files on a filesystem.
type Locator struct {
	fs afero.Fs
}

// NewLocator returns a locator reading from fs.
func NewLocator(fs afero.Fs) *Locator {
	return &Locator{fs: fs}
}

// Open reads and decodes the manifest at p.
func (l *Locator) Open(p string) (File, error) {
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("opening %s: %w", p, ErrNoManifest)
		}
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}

	return &mapFile{
		fs:       l.fs,
		dir:      filepath.Dir(p),
		manifest: m,
	}, nil
}

type mapFile struct {
	fs       afero.Fs
	dir      string
	manifest Manifest
}

// Get returns the first resource matching kind and id.
func (f *mapFile) Get(kind string, id int) ([]byte, error) {
	for _, e := range f.manifest.Resources {
		if e.Type != kind || e.ID != id {
			continue
		}
		if e.Path == "" {
			return []byte(e.Text), nil
		}
		full := filepath.Join(f.dir, filepath.FromSlash(path.Clean(e.Path)))
		data, err := afero.ReadFile(f.fs, full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s %d (%s): %w", kind, id, e.Path, ErrNotFound)
			}
			return nil, fmt.Errorf("reading %s %d: %w", kind, id, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// Describe returns the decoded manifest of an opened file, or false if f
// was not produced by a Locator.
func Describe(f File) (Manifest, bool) {
	mf, ok := f.(*mapFile)
	if !ok {
		return Manifest{}, false
	}
	return mf.manifest, true
}
