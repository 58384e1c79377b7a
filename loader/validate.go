package loader

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/mapscript/types"
)

// ParseError collects the elements rejected while parsing a level-script
// document. The registry returned alongside it holds every element that
// was accepted.
type ParseError struct {
	Errors []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("level scripts: %d element(s) rejected:\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Bounds shared by level indexes, resource IDs and end-screen counts.
const (
	minShort = -32768
	maxShort = 32767
)

// commandKinds maps command element names to the command they produce.
var commandKinds = map[string]types.CommandKind{
	"mml":       types.IncludeMarkup,
	"pfhortran": types.IncludeScript,
	"lua":       types.IncludeScript,
	"music":     types.QueueMusic,
	"movie":     types.QueueMovie,
}

// pseudoLevels maps special header element names to their level.
var pseudoLevels = map[string]int{
	"default": types.LevelDefault,
	"restore": types.LevelRestore,
	"end":     types.LevelEnd,
}

// parseCommand builds a command from an element's attributes. A command
// must name a resource, a file, or both.
func parseCommand(kind types.CommandKind, attrs []xml.Attr) (types.Command, error) {
	cmd := types.Command{Kind: kind, Resource: types.UnsetResource, Size: types.NoSize}
	found := false

	for _, a := range attrs {
		switch a.Name.Local {
		case "resource":
			id, err := parseBounded(a.Value, 0, maxShort)
			if err != nil {
				return types.Command{}, fmt.Errorf("resource: %w", err)
			}
			cmd.Resource = id
			found = true
		case "file":
			cmd.File = a.Value
			found = true
		case "size":
			size, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
			if err != nil {
				return types.Command{}, fmt.Errorf("size: invalid number %q", a.Value)
			}
			cmd.Size = size
		default:
			return types.Command{}, fmt.Errorf("unrecognized attribute %q", a.Name.Local)
		}
	}

	if !found {
		return types.Command{}, fmt.Errorf("needs a resource or file attribute")
	}
	return cmd, nil
}

// parseLevelIndex reads the required index attribute of a level element.
func parseLevelIndex(attrs []xml.Attr) (int, error) {
	index := -1
	for _, a := range attrs {
		if a.Name.Local != "index" {
			return 0, fmt.Errorf("unrecognized attribute %q", a.Name.Local)
		}
		n, err := parseBounded(a.Value, 0, maxShort)
		if err != nil {
			return 0, fmt.Errorf("index: %w", err)
		}
		index = n
	}
	if index < 0 {
		return 0, fmt.Errorf("missing index attribute")
	}
	return index, nil
}

// parseRandomOrder reads the on attribute of a random_order element.
func parseRandomOrder(attrs []xml.Attr) (bool, error) {
	set := false
	on := false
	for _, a := range attrs {
		if a.Name.Local != "on" {
			return false, fmt.Errorf("unrecognized attribute %q", a.Name.Local)
		}
		v, err := parseBool(a.Value)
		if err != nil {
			return false, fmt.Errorf("on: %w", err)
		}
		on, set = v, true
	}
	if !set {
		return false, fmt.Errorf("missing on attribute")
	}
	return on, nil
}

// applyEndScreens updates es from an end_screens element. Each valid
// attribute is applied on its own; the returned errors describe the rest.
func applyEndScreens(es *types.EndScreens, attrs []xml.Attr) []error {
	var errs []error
	for _, a := range attrs {
		switch a.Name.Local {
		case "index":
			n, err := parseBounded(a.Value, minShort, maxShort)
			if err != nil {
				errs = append(errs, fmt.Errorf("index: %w", err))
				continue
			}
			es.Index = n
		case "count":
			n, err := parseBounded(a.Value, 0, maxShort)
			if err != nil {
				errs = append(errs, fmt.Errorf("count: %w", err))
				continue
			}
			es.Count = n
		default:
			errs = append(errs, fmt.Errorf("unrecognized attribute %q", a.Name.Local))
		}
	}
	return errs
}

func parseBounded(v string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
