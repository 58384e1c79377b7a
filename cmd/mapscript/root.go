package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "mapscript",
	Short:         "Level-script registry and playback for map files",
	Long:          "mapscript loads the level scripts of a map file and replays them the way the engine does when a level is entered.",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .mapscript.yaml)")
	pf.StringP("map", "m", "", "map file manifest (default map.toml)")
	pf.StringP("world", "w", "", "world state file (YAML)")
	pf.Duration("fade-out", 0, "music fade-out on level change")
	pf.Float64("movie-size", 0, "movie size used when a script gives none")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	pf.Bool("trace", false, "print every command of a script run")

	for key, flag := range map[string]string{
		"map_file":           "map",
		"world_file":         "world",
		"fade_out":           "fade-out",
		"default_movie_size": "movie-size",
		"log_level":          "log-level",
		"log_format":         "log-format",
		"trace":              "trace",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".mapscript")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("MAPSCRIPT")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
