// Package config loads runtime settings for the mapscript binary.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
// Values are populated from .mapscript.yaml, MAPSCRIPT_* env vars, and CLI flags.
type Config struct {
	MapFile          string        `mapstructure:"map_file"`
	WorldFile        string        `mapstructure:"world_file"`
	FadeOut          time.Duration `mapstructure:"fade_out"`
	DefaultMovieSize float64       `mapstructure:"default_movie_size"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`
	Plain            bool          `mapstructure:"plain"`
	Trace            bool          `mapstructure:"trace"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("map_file", "map.toml")
	viper.SetDefault("world_file", "")
	viper.SetDefault("fade_out", 500*time.Millisecond)
	viper.SetDefault("default_movie_size", 1.0)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("plain", false)
	viper.SetDefault("trace", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.MapFile == "" {
		return fmt.Errorf("map_file must be set")
	}
	if c.FadeOut < 0 {
		return fmt.Errorf("fade_out must not be negative, got %s", c.FadeOut)
	}
	if c.DefaultMovieSize <= 0 {
		return fmt.Errorf("default_movie_size must be positive, got %v", c.DefaultMovieSize)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
