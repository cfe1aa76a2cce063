package config

import (
	"fmt"

	"github.com/leapstack-labs/schemadbg/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be zero (unlimited) or positive, got %d", c.MaxDepth)
	}
	if _, err := output.ParseMode(string(c.Output)); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	return nil
}
