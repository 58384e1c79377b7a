package world

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/mapscript/mml"
)

// FogHandler applies <fog> markup elements to w:
//
//	<fog on="1" depth="8" landscapes="0" type="0">
//	  <color red="0.5" green="0.5" blue="0.5"/>
//	</fog>
//
// type selects the layer (0 above liquid, 1 below). Color channels are in
// 0..1. Attributes that are absent leave the layer unchanged.
func FogHandler(w *World) mml.Handler {
	return mml.HandlerFunc(func(el *mml.Element) error {
		slot := FogAboveLiquid
		if v, ok := el.Attr("type"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || w.FogAt(n) == nil {
				return fmt.Errorf("type: invalid fog layer %q", v)
			}
			slot = n
		}
		fog := w.FogAt(slot)

		if v, ok := el.Attr("on"); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("on: %w", err)
			}
			fog.Present = b
		}
		if v, ok := el.Attr("depth"); ok {
			d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("depth: %w", err)
			}
			fog.Depth = d
		}
		if v, ok := el.Attr("landscapes"); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("landscapes: %w", err)
			}
			fog.AffectsLandscapes = b
		}

		if c := el.Child("color"); c != nil {
			channels := []struct {
				name string
				dst  *uint16
			}{
				{"red", &fog.Color.Red},
				{"green", &fog.Color.Green},
				{"blue", &fog.Color.Blue},
			}
			for _, ch := range channels {
				v, ok := c.Attr(ch.name)
				if !ok {
					continue
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return fmt.Errorf("color %s: %w", ch.name, err)
				}
				*ch.dst = PinColor(f)
			}
		}
		return nil
	})
}
