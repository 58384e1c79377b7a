package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathoo/mapscript/cli"
	"github.com/nathoo/mapscript/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive console on the map's level scripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptFile, _ := cmd.Flags().GetString("script")
		historyFile, _ := cmd.Flags().GetString("history")

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.warn(cmd.ErrOrStderr())
		s := a.session()

		// Script mode: read commands from a file, force plain, echo input.
		if scriptFile != "" {
			f, err := appFs.Open(scriptFile)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()
			c := cli.New(s)
			c.In = f
			c.Out = cmd.OutOrStdout()
			c.EchoInput = true
			c.Run()
			return nil
		}

		if a.cfg.Plain || !isTerminal() {
			c := cli.New(s)
			c.Out = cmd.OutOrStdout()
			c.Run()
			return nil
		}

		opts := tui.Options{Fs: appFs, HistoryFile: historyFile}
		if opts.HistoryFile == "" {
			if home, err := os.UserHomeDir(); err == nil {
				opts.HistoryFile = filepath.Join(home, ".mapscript_history")
			}
		}
		return tui.Run(s, opts)
	},
}

func init() {
	consoleCmd.Flags().Bool("plain", false, "line-oriented console even on a terminal")
	consoleCmd.Flags().String("script", "", "read console input from a file")
	consoleCmd.Flags().String("history", "", "input history file (default ~/.mapscript_history)")
	_ = viper.BindPFlag("plain", consoleCmd.Flags().Lookup("plain"))
	rootCmd.AddCommand(consoleCmd)
}
