package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathoo/mapscript/cli"
	"github.com/nathoo/mapscript/types"
)

var runCmd = &cobra.Command{
	Use:   "run <level|end|restore>",
	Short: "Run one level script pass and print what it did",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks, _ := cmd.Flags().GetInt("tracks")
		level, err := parseTarget(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.warn(cmd.ErrOrStderr())

		var rep types.Report
		switch level {
		case types.LevelEnd:
			rep = a.engine.RunEndScript()
		case types.LevelRestore:
			rep = a.engine.RunRestorationScript()
		default:
			rep = a.engine.RunLevelScript(level)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.Summarize(rep))
		if a.cfg.Trace {
			writeLines(out, cli.FormatReport(rep))
		}
		if level < 0 {
			return nil
		}

		writeLines(out, cli.FormatPlaylist(a.engine.Playlist()))
		if a.engine.IsLevelMusicActive() && tracks > 0 {
			fmt.Fprintln(out, "Rotation:")
			for i := 0; i < tracks; i++ {
				track, _ := a.engine.NextTrack()
				fmt.Fprintf(out, "%3d  %s\n", i+1, track)
			}
		}
		return nil
	},
}

var movieCmd = &cobra.Command{
	Use:   "movie <level|end>",
	Short: "Resolve the movie shown before a level or at the end of the game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		if level == types.LevelRestore {
			return fmt.Errorf("the restoration script has no movie")
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.warn(cmd.ErrOrStderr())

		if level == types.LevelEnd {
			a.engine.FindEndMovie()
		} else {
			a.engine.FindLevelMovie(level)
		}

		file, size, ok := a.engine.GetLevelMovie(a.cfg.DefaultMovieSize)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No movie.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Movie: %s (size %g)\n", file, size)
		return nil
	},
}

func init() {
	runCmd.Flags().IntP("tracks", "n", 0, "also print the next n tracks of the level playlist")
	rootCmd.AddCommand(runCmd, movieCmd)
}

// parseTarget accepts a level number or the name of a pseudo-level.
func parseTarget(arg string) (int, error) {
	switch strings.ToLower(arg) {
	case "end":
		return types.LevelEnd, nil
	case "restore":
		return types.LevelRestore, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid level %q: want a level number, end or restore", arg)
	}
	return n, nil
}

// targetName is the display name of a header.
func targetName(level int) string {
	if level >= 0 {
		return strconv.Itoa(level)
	}
	return types.LevelName(level)
}
