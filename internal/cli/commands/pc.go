package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadbg/internal/debugger"
	"github.com/leapstack-labs/schemadbg/internal/snapshot"
)

// PCOptions holds options for the pc command.
type PCOptions struct {
	Watch bool
}

// NewPCCommand creates the pc command.
func NewPCCommand() *cobra.Command {
	opts := &PCOptions{}

	cmd := &cobra.Command{
		Use:   "pc <snapshot>",
		Short: "Show the schema generation context",
		Long: `Print the state of the schema generation engine and the call tree that led
to the paused point.

The summaries come first: collected definitions, the model type stack, the
field name stack, the typevars map and the generic recursion cache. The tree
follows, one node per model being built, field being generated, model being
created or generic being parametrized.`,
		Example: `  # Show the generation context
  schemadbg pc snapshot.yaml

  # Re-render whenever the snapshot is rewritten
  schemadbg pc snapshot.yaml --watch`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: snapshotArgCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPC(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-render when the snapshot changes")
	cmd.Flags().Duration("debounce", 0, "Quiet period before reloading a changed snapshot (default: 100ms)")

	return cmd
}

func runPC(cmd *cobra.Command, path string, opts *PCOptions) error {
	cc := NewCommandContext(cmd)

	s, cleanup, err := cc.OpenSession(path)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.PrintContext(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchContext(ctx, cc, s, path)
}

// watchContext re-renders the context of path each time it changes until ctx is done.
func watchContext(ctx context.Context, cc *CommandContext, s *debugger.Session, path string) error {
	r := cc.Renderer
	r.StatusLine("watching "+s.Snapshot().Path, "", "(Ctrl+C to stop)")

	return snapshot.Watch(ctx, path, cc.Cfg.WatchDebounce, cc.Logger, func(snap *snapshot.Snapshot, err error) {
		if err != nil {
			r.StatusLine(path, "failed", err.Error())
			return
		}
		if err := s.SetSnapshot(snap); err != nil {
			r.StatusLine(path, "failed", err.Error())
			return
		}
		cc.reportWarnings(snap)

		r.Println()
		r.StatusLine("reloaded "+snap.Path, "success", time.Now().Format(time.TimeOnly))
		if err := s.PrintContext(); err != nil {
			r.Error(err.Error())
		}
	}, cc.snapshotOptions()...)
}
