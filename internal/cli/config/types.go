// Package config provides configuration management for the schemadbg CLI.
//
// Values are layered, lowest to highest: built-in defaults, the
// schemadbg.yaml file, SCHEMADBG_ environment variables and explicitly set
// command-line flags.
package config

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/schemadbg/internal/cli/output"
)

// Config holds all CLI configuration options.
type Config struct {
	// MaxDepth is the default pps depth. Zero means unlimited.
	MaxDepth      int           `koanf:"max_depth"`
	Output        output.Mode   `koanf:"output"`
	Verbose       bool          `koanf:"verbose"`
	LogLevel      slog.Level    `koanf:"log_level"`
	SourceRoot    string        `koanf:"source_root"`
	HistoryFile   string        `koanf:"history_file"`
	Prompt        string        `koanf:"prompt"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
	Theme         output.Theme  `koanf:"theme"`
}

// Default configuration values.
const (
	DefaultMaxDepth      = 0
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel      = "warn"
	DefaultPrompt        = "(schema dbg) "
	DefaultWatchDebounce = "100ms"
	DefaultHistoryName   = ".schemadbg_history"
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"schemadbg.yaml", "schemadbg.yml"}

// LogLevelFor returns the effective log level; verbose forces debug.
func (c *Config) LogLevelFor() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return c.LogLevel
}
