package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nathoo/mapscript/engine/registry"
	"github.com/nathoo/mapscript/engine/snapshot"
	"github.com/nathoo/mapscript/resource"
	"github.com/nathoo/mapscript/types"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the level script headers of the map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.warn(cmd.ErrOrStderr())

		reg := a.engine.Registry()
		switch format {
		case "table":
			if f, err := resource.NewLocator(appFs).Open(a.cfg.MapFile); err == nil {
				if m, ok := resource.Describe(f); ok && m.Name != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Map: %s\n", m.Name)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), levelsTable(reg))
			fmt.Fprintf(cmd.OutOrStdout(), "End screens: index %d, count %d\n", reg.EndScreens.Index, reg.EndScreens.Count)
			return nil
		case "yaml", "yml", "json":
			doc := snapshot.Take(reg)
			doc.Map = a.cfg.MapFile
			data, err := snapshot.Encode(doc, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		default:
			return fmt.Errorf("unknown format %q: want table, yaml or json", format)
		}
	},
}

func init() {
	levelsCmd.Flags().StringP("format", "f", "table", "output format: table, yaml or json")
	rootCmd.AddCommand(levelsCmd)
}

// levelsTable renders one row per header with its command counts.
func levelsTable(reg *registry.Registry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LEVEL", "MARKUP", "SCRIPTS", "MUSIC", "MOVIES", "ORDER").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})

	for _, h := range reg.Headers() {
		order := "sequential"
		if h.RandomOrder {
			order = "random"
		}
		t.Row(
			targetName(h.Level),
			count(reg, h.Level, types.IncludeMarkup),
			count(reg, h.Level, types.IncludeScript),
			count(reg, h.Level, types.QueueMusic),
			count(reg, h.Level, types.QueueMovie),
			order,
		)
	}
	return t.Render()
}

func count(reg *registry.Registry, level int, kind types.CommandKind) string {
	return strconv.Itoa(len(reg.Commands(level, kind)))
}

// writeLines prints each line on its own.
func writeLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
