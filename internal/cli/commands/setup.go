package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadbg/internal/cli/config"
	"github.com/leapstack-labs/schemadbg/internal/cli/output"
	"github.com/leapstack-labs/schemadbg/internal/debugger"
	"github.com/leapstack-labs/schemadbg/internal/snapshot"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a renderer on the
// command's output streams.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output)
	r.SetTheme(cfg.Theme)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// snapshotOptions returns the load options implied by the configuration.
func (c *CommandContext) snapshotOptions() []snapshot.Option {
	opts := []snapshot.Option{snapshot.WithLogger(c.Logger)}
	if c.Cfg.SourceRoot != "" {
		opts = append(opts, snapshot.WithSourceRoot(c.Cfg.SourceRoot))
	}
	return opts
}

// LoadSnapshot loads the snapshot at path.
func (c *CommandContext) LoadSnapshot(path string) (*snapshot.Snapshot, error) {
	snap, err := snapshot.Load(path, c.snapshotOptions()...)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded snapshot",
		slog.String("path", snap.Path),
		slog.Int("events", len(snap.Events)),
		slog.Int("scope", len(snap.Scope)))
	c.reportWarnings(snap)
	return snap, nil
}

// reportWarnings prints the entries the loader skipped.
func (c *CommandContext) reportWarnings(snap *snapshot.Snapshot) {
	for _, w := range snap.Warnings {
		c.Renderer.Warning(w)
	}
}

// OpenSession loads the snapshot at path and starts a debugger session on it.
// Returns the session and a cleanup function that must be called (typically via defer).
func (c *CommandContext) OpenSession(path string) (*debugger.Session, func(), error) {
	snap, err := c.LoadSnapshot(path)
	if err != nil {
		return nil, nil, err
	}

	s, err := debugger.NewSession(debugger.Config{
		Snapshot: snap,
		Renderer: c.Renderer,
		MaxDepth: c.Cfg.MaxDepth,
		Logger:   c.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// DefaultConfig returns the configuration used when none was loaded.
func DefaultConfig() *config.Config {
	return &config.Config{
		Output:        output.ModeAuto,
		LogLevel:      slog.LevelWarn,
		Prompt:        config.DefaultPrompt,
		WatchDebounce: snapshot.DefaultDebounce,
		Theme:         output.DefaultTheme(),
	}
}

// getConfig returns the current configuration.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// snapshotArgCompletion completes snapshot file arguments.
func snapshotArgCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"yaml", "yml", "json"}, cobra.ShellCompDirectiveFilterFileExt
}
