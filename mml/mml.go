// Package mml applies documents in the engine's main markup grammar. The
// grammar's vocabulary lives in handlers registered by the caller; the
// loader itself only walks the document and dispatches top-level elements.
package mml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Root is the name of the document element.
const Root = "marathon"

// Element is a parsed markup element.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	Text     string
}

// Attr returns the named attribute and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Handler applies one top-level element.
type Handler interface {
	Apply(el *Element) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(el *Element) error

// Apply calls f(el).
func (f HandlerFunc) Apply(el *Element) error { return f(el) }

// Loader dispatches markup documents to registered handlers.
type Loader struct {
	handlers map[string]Handler
	log      *slog.Logger
}

// New creates a loader with no handlers.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{handlers: make(map[string]Handler), log: logger}
}

// Handle registers h for top-level elements called name, replacing any
// previous handler.
func (l *Loader) Handle(name string, h Handler) {
	l.handlers[name] = h
}

// Handled reports the element names that have handlers.
func (l *Loader) Handled() []string {
	names := make([]string, 0, len(l.handlers))
	for n := range l.handlers {
		names = append(names, n)
	}
	return names
}

// LoadMarkup parses data and applies every top-level element. Handler
// errors do not stop the document; they are joined and returned at the end.
func (l *Loader) LoadMarkup(data []byte) error {
	root, err := parse(data)
	if err != nil {
		return err
	}
	if root.Name != Root {
		return fmt.Errorf("markup: root element <%s>, want <%s>", root.Name, Root)
	}

	var errs []error
	for _, el := range root.Children {
		h, ok := l.handlers[el.Name]
		if !ok {
			l.log.Debug("markup: no handler", "element", el.Name)
			continue
		}
		if err := h.Apply(el); err != nil {
			errs = append(errs, fmt.Errorf("<%s>: %w", el.Name, err))
		}
	}
	return errors.Join(errs...)
}

func parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*Element
	var root *Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("markup: more than one root element")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Text += strings.TrimSpace(string(t))
			}
		}
	}

	if root == nil {
		return nil, errors.New("markup: empty document")
	}
	return root, nil
}
