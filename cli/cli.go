// Package cli provides the line-oriented console for inspecting and
// exercising a map's level scripts, and the session it shares with the
// full-screen console.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI is the plain console loop.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI on stdin and stdout.
func New(s *Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run prints a banner and loops: prompt, input, dispatch, output. It
// returns at end of input or on /quit.
func (c *CLI) Run() {
	eng := c.Session.Engine
	c.printLine(fmt.Sprintf("mapscript: %s (%d level script header(s))", eng.MapFile(), eng.Registry().Len()))
	c.printLine("Type /help for commands.")
	c.printLine("")

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") || strings.HasPrefix(input, "--") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		out := c.Session.Handle(input)
		for _, line := range out.Lines {
			if out.System {
				c.printSystem(line)
			} else {
				c.printLine(line)
			}
		}
		if out.Quit {
			return
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	if text == "" {
		fmt.Fprintln(c.Out)
		return
	}
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
