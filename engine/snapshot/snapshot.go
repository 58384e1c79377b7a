// Package snapshot exports the level-script registry as YAML or JSON and
// reads such exports back.
package snapshot

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/types"
)

// Document is the serializable form of a registry.
type Document struct {
	Map        string     `json:"map,omitempty" yaml:"map,omitempty"`
	EndScreens EndScreens `json:"end_screens" yaml:"end_screens"`
	Levels     []Level    `json:"levels" yaml:"levels"`
}

// EndScreens mirrors types.EndScreens.
type EndScreens struct {
	Index int `json:"index" yaml:"index"`
	Count int `json:"count" yaml:"count"`
}

// Level is one header. Name is "level" for ordinary levels and the
// pseudo-level name otherwise.
type Level struct {
	Level       int       `json:"level" yaml:"level"`
	Name        string    `json:"name" yaml:"name"`
	RandomOrder bool      `json:"random_order,omitempty" yaml:"random_order,omitempty"`
	Commands    []Command `json:"commands" yaml:"commands"`
}

// Command is one command; absent fields are omitted.
type Command struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Resource *int     `json:"resource,omitempty" yaml:"resource,omitempty"`
	File     string   `json:"file,omitempty" yaml:"file,omitempty"`
	Size     *float64 `json:"size,omitempty" yaml:"size,omitempty"`
}

var kinds = map[string]types.CommandKind{
	types.IncludeMarkup.String(): types.IncludeMarkup,
	types.IncludeScript.String(): types.IncludeScript,
	types.QueueMusic.String():    types.QueueMusic,
	types.QueueMovie.String():    types.QueueMovie,
}

// Take captures reg.
func Take(reg *registry.Registry) Document {
	doc := Document{
		EndScreens: EndScreens{Index: reg.EndScreens.Index, Count: reg.EndScreens.Count},
		Levels:     []Level{},
	}
	for _, h := range reg.Headers() {
		l := Level{
			Level:       h.Level,
			Name:        types.LevelName(h.Level),
			RandomOrder: h.RandomOrder,
			Commands:    make([]Command, 0, len(h.Commands)),
		}
		for _, c := range h.Commands {
			sc := Command{Kind: c.Kind.String(), File: c.File}
			if c.HasResource() {
				r := c.Resource
				sc.Resource = &r
			}
			if c.HasSize() {
				s := c.Size
				sc.Size = &s
			}
			l.Commands = append(l.Commands, sc)
		}
		doc.Levels = append(doc.Levels, l)
	}
	return doc
}

// Restore rebuilds a registry from doc.
func Restore(doc *Document) (*registry.Registry, error) {
	reg := registry.New()
	reg.EndScreens = types.EndScreens{Index: doc.EndScreens.Index, Count: doc.EndScreens.Count}
	for _, l := range doc.Levels {
		h := reg.LocateOrCreate(l.Level)
		h.RandomOrder = h.RandomOrder || l.RandomOrder
		for i, c := range l.Commands {
			kind, ok := kinds[c.Kind]
			if !ok {
				return nil, fmt.Errorf("level %d command %d: unknown kind %q", l.Level, i, c.Kind)
			}
			cmd := types.Command{Kind: kind, Resource: types.UnsetResource, File: c.File, Size: types.NoSize}
			if c.Resource != nil {
				cmd.Resource = *c.Resource
			}
			if c.Size != nil {
				cmd.Size = *c.Size
			}
			h.Commands = append(h.Commands, cmd)
		}
	}
	return reg, nil
}

// Encode serializes doc as "yaml" or "json".
func Encode(doc Document, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(doc)
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Decode parses an export produced by Encode.
func Decode(data []byte, format string) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	case "json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s snapshot: %w", format, err)
	}
	return &doc, nil
}
