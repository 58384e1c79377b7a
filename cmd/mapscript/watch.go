package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nathoo/mapscript/loader"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the level scripts whenever the map's directory changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.warn(cmd.ErrOrStderr())

		w, err := loader.NewWatcher(a.cfg.MapFile)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching %s: %w", a.cfg.MapFile, err)
		}
		defer w.Stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (%d header(s)). Press Ctrl+C to stop.\n", a.cfg.MapFile, a.engine.Registry().Len())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case file, ok := <-w.Changes:
				if !ok {
					return nil
				}
				a.loadErr = a.engine.Reload()
				fmt.Fprintf(out, "%s changed: reloaded %d header(s)\n", file, a.engine.Registry().Len())
				a.warn(out)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
