// Package world holds the map state that level scripts can observe and
// change: environment flags, fog, lights, tags, polygons, platforms and
// annotations.
//
// Distances are stored in world units (WorldOne per unit) and speeds in
// world units per tick, the way the map file stores them. Conversions to
// script-facing units happen at the scripting boundary.
package world

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// WorldOne is the number of world units in one script unit.
	WorldOne = 1024
	// TicksPerSecond is the game's simulation rate.
	TicksPerSecond = 30
	// MaxAnnotations bounds the annotation list.
	MaxAnnotations = 32767
	// MaxAnnotationText is the longest annotation text kept, in bytes.
	MaxAnnotationText = 63
	// None marks an absent index.
	None = -1
)

// Polygon types referenced by the scripting layer.
const (
	PolygonNormal     = 0
	PolygonIsPlatform = 5
)

// Fog slots.
const (
	FogAboveLiquid = 0
	FogBelowLiquid = 1
)

// Color is a 16-bit-per-channel RGB color.
type Color struct {
	Red   uint16 `yaml:"red"`
	Green uint16 `yaml:"green"`
	Blue  uint16 `yaml:"blue"`
}

// Fog is one of the two fog layers.
type Fog struct {
	Present           bool    `yaml:"present"`
	AffectsLandscapes bool    `yaml:"affects_landscapes"`
	Depth             float64 `yaml:"depth"`
	Color             Color   `yaml:"color"`
}

// Environment is the set of map-wide environment flags.
type Environment struct {
	Vacuum     bool `yaml:"vacuum"`
	Magnetic   bool `yaml:"magnetic"`
	Rebellion  bool `yaml:"rebellion"`
	LowGravity bool `yaml:"low_gravity"`
}

// Light is a map light.
type Light struct {
	Active bool `yaml:"active"`
}

// Tag is a control tag shared by lights and platforms.
type Tag struct {
	Active bool `yaml:"active"`
}

// Polygon is a map polygon. Platform is the platform index when Type is
// PolygonIsPlatform.
type Polygon struct {
	Type          int `yaml:"type"`
	FloorHeight   int `yaml:"floor_height"`
	CeilingHeight int `yaml:"ceiling_height"`
	X             int `yaml:"x"`
	Y             int `yaml:"y"`
	Platform      int `yaml:"platform"`
}

// Platform is a moving floor or ceiling.
type Platform struct {
	Active              bool `yaml:"active"`
	Extending           bool `yaml:"extending"`
	MonsterControllable bool `yaml:"monster_controllable"`
	PlayerControllable  bool `yaml:"player_controllable"`
	FloorHeight         int  `yaml:"floor_height"`
	CeilingHeight       int  `yaml:"ceiling_height"`
	Speed               int  `yaml:"speed"`
	Polygon             int  `yaml:"polygon"`
}

// Annotation is a map annotation. Polygon is None for free-standing text.
type Annotation struct {
	Polygon int    `yaml:"polygon"`
	Text    string `yaml:"text"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
}

// World is the observable state of the loaded level.
type World struct {
	Name          string       `yaml:"name"`
	Environment   Environment  `yaml:"environment"`
	Fog           Fog          `yaml:"fog"`
	UnderwaterFog Fog          `yaml:"underwater_fog"`
	Lights        []Light      `yaml:"lights"`
	Tags          []Tag        `yaml:"tags"`
	Polygons      []Polygon    `yaml:"polygons"`
	Platforms     []Platform   `yaml:"platforms"`
	Annotations   []Annotation `yaml:"annotations"`
}

// ErrAnnotationLimit is returned by AddAnnotation when the list is full.
var ErrAnnotationLimit = errors.New("annotation limit reached")

// New returns an empty world.
func New(name string) *World {
	return &World{Name: name}
}

// Load reads a world description from a YAML file.
func Load(fs afero.Fs, path string) (*World, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading world %s: %w", path, err)
	}
	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing world %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", path, err)
	}
	return &w, nil
}

// Validate checks cross references between polygons, platforms and
// annotations.
func (w *World) Validate() error {
	var errs []error
	for i, p := range w.Polygons {
		if p.Type == PolygonIsPlatform && !w.validPlatform(p.Platform) {
			errs = append(errs, fmt.Errorf("polygon %d: platform %d out of range", i, p.Platform))
		}
	}
	for i, p := range w.Platforms {
		if !w.ValidPolygon(p.Polygon) {
			errs = append(errs, fmt.Errorf("platform %d: polygon %d out of range", i, p.Polygon))
		}
	}
	for i, a := range w.Annotations {
		if a.Polygon != None && !w.ValidPolygon(a.Polygon) {
			errs = append(errs, fmt.Errorf("annotation %d: polygon %d out of range", i, a.Polygon))
		}
	}
	return errors.Join(errs...)
}

// FogAt returns the fog layer for a slot, or nil.
func (w *World) FogAt(slot int) *Fog {
	switch slot {
	case FogAboveLiquid:
		return &w.Fog
	case FogBelowLiquid:
		return &w.UnderwaterFog
	}
	return nil
}

// ValidPolygon reports whether i indexes a polygon.
func (w *World) ValidPolygon(i int) bool {
	return i >= 0 && i < len(w.Polygons)
}

func (w *World) validPlatform(i int) bool {
	return i >= 0 && i < len(w.Platforms)
}

// PlatformOf returns the platform index of polygon i, if it is a platform.
func (w *World) PlatformOf(i int) (int, bool) {
	if !w.ValidPolygon(i) {
		return None, false
	}
	p := w.Polygons[i]
	if p.Type != PolygonIsPlatform || !w.validPlatform(p.Platform) {
		return None, false
	}
	return p.Platform, true
}

// AddAnnotation appends an annotation and returns its index. A polygon
// annotation without explicit coordinates is placed at the polygon center.
func (w *World) AddAnnotation(polygon int, text string, x, y *int) (int, error) {
	if len(w.Annotations) >= MaxAnnotations {
		return None, ErrAnnotationLimit
	}
	if polygon != None && !w.ValidPolygon(polygon) {
		return None, fmt.Errorf("polygon %d out of range", polygon)
	}

	a := Annotation{Polygon: polygon, Text: text}
	if len(a.Text) > MaxAnnotationText {
		a.Text = a.Text[:MaxAnnotationText]
	}
	if polygon != None {
		a.X, a.Y = w.Polygons[polygon].X, w.Polygons[polygon].Y
	}
	if x != nil {
		a.X = *x
	}
	if y != nil {
		a.Y = *y
	}

	w.Annotations = append(w.Annotations, a)
	return len(w.Annotations) - 1, nil
}

// PinColor converts a 0..1 channel value to 16 bits, clamping out-of-range
// input.
func PinColor(v float64) uint16 {
	c := int(65535*v + 0.5)
	switch {
	case c < 0:
		return 0
	case c > 65535:
		return 65535
	}
	return uint16(c)
}
