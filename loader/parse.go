package loader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/types"
)

// rootElement encloses every header in a level-script document.
const rootElement = "marathon_levels"

// parser walks a level-script document token by token. Rejected elements
// are recorded and skipped; only tokenizer errors stop the walk.
type parser struct {
	d   *xml.Decoder
	reg *registry.Registry
	pe  *ParseError
}

// Parse builds a registry from a level-script document. When elements are
// rejected the returned error is a *ParseError and the registry holds
// everything that was accepted.
func Parse(data []byte) (*registry.Registry, error) {
	p := &parser{
		d:   xml.NewDecoder(bytes.NewReader(data)),
		reg: registry.New(),
		pe:  &ParseError{},
	}

	if err := p.document(); err != nil {
		p.pe.Errors = append(p.pe.Errors, fmt.Sprintf("malformed document: %v", err))
	}

	if len(p.pe.Errors) > 0 {
		return p.reg, p.pe
	}
	return p.reg, nil
}

func (p *parser) document() error {
	for {
		tok, err := p.d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != rootElement {
			p.reject(se, fmt.Errorf("expected <%s>", rootElement))
			if err := p.d.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := p.levels(); err != nil {
			return err
		}
	}
}

// levels handles the children of the root element.
func (p *parser) levels() error {
	for {
		tok, err := p.d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := p.level(t); err != nil {
				return err
			}
		}
	}
}

func (p *parser) level(se xml.StartElement) error {
	name := se.Name.Local

	if level, ok := pseudoLevels[name]; ok {
		if len(se.Attr) > 0 {
			p.reject(se, fmt.Errorf("unrecognized attribute %q", se.Attr[0].Name.Local))
			return p.d.Skip()
		}
		return p.commands(p.reg.LocateOrCreate(level))
	}

	switch name {
	case "level":
		index, err := parseLevelIndex(se.Attr)
		if err != nil {
			p.reject(se, err)
			return p.d.Skip()
		}
		return p.commands(p.reg.LocateOrCreate(index))

	case "end_screens":
		for _, err := range applyEndScreens(&p.reg.EndScreens, se.Attr) {
			p.reject(se, err)
		}
		return p.d.Skip()

	default:
		p.reject(se, errors.New("unknown element"))
		return p.d.Skip()
	}
}

// commands appends the command children of a header element to h.
func (p *parser) commands(h *types.Header) error {
	for {
		tok, err := p.d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			p.command(h, t)
			if err := p.d.Skip(); err != nil {
				return err
			}
		}
	}
}

func (p *parser) command(h *types.Header, se xml.StartElement) {
	if se.Name.Local == "random_order" {
		on, err := parseRandomOrder(se.Attr)
		if err != nil {
			p.reject(se, err)
			return
		}
		h.RandomOrder = on
		return
	}

	kind, ok := commandKinds[se.Name.Local]
	if !ok {
		p.reject(se, errors.New("unknown command"))
		return
	}
	cmd, err := parseCommand(kind, se.Attr)
	if err != nil {
		p.reject(se, err)
		return
	}
	h.Commands = append(h.Commands, cmd)
}

func (p *parser) reject(se xml.StartElement, err error) {
	line, _ := p.d.InputPos()
	p.pe.Errors = append(p.pe.Errors, fmt.Sprintf("line %d: <%s>: %v", line, se.Name.Local, err))
}
