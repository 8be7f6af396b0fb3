package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for run log files.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// FileConfig describes an optional rotating log file destination.
// If Path is empty and Dir is set, the file is Dir/<name>.log.
// Rotation parameters follow lumberjack semantics.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Dir        string `mapstructure:"dir"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Config describes the logger built for a runner or the CLI.
type Config struct {
	Level string     `mapstructure:"level"`
	Color bool       `mapstructure:"color"`
	File  FileConfig `mapstructure:"file"`
}

// FileWriter returns a rotating writer for the configured file destination,
// or nil when file logging is disabled or has no usable path.
func (c Config) FileWriter(name string) (io.WriteCloser, error) {
	if !c.File.Enabled {
		return nil, nil
	}
	path := c.File.Path
	if path == "" && c.File.Dir != "" {
		path = filepath.Join(c.File.Dir, fmt.Sprintf("%s.log", name))
	}
	if path == "" {
		return nil, nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.File.Compress,
	}, nil
}

// New builds a slog.Logger per the config: colored text on stdout, plus an
// optional rotating JSON file. The returned close function flushes and
// closes the file writer (a no-op when no file is configured).
func New(c Config, name string) (*slog.Logger, func() error, error) {
	lvl := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if c.Color {
		handler = NewColorTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	fw, err := c.FileWriter(name)
	if err != nil {
		return nil, nil, err
	}
	if fw == nil {
		return slog.New(handler), func() error { return nil }, nil
	}

	fileHandler := slog.NewJSONHandler(fw, opts)
	return slog.New(multiHandler{handler, fileHandler}), fw.Close, nil
}

// ParseLevel maps a level string to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
