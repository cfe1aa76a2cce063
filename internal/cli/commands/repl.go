package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadbg/internal/debugger"
)

// REPLOptions holds options for the repl command.
type REPLOptions struct {
	NoHistory bool
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	opts := &REPLOptions{}

	cmd := &cobra.Command{
		Use:     "repl <snapshot>",
		Aliases: []string{"debug"},
		Short:   "Start an interactive debugger prompt",
		Long: `Open an interactive prompt over a snapshot.

Commands:
  pps <expr> [depth]  Pretty-print the cleaned core schema <expr> evaluates to
  pc                  Show the schema generation context and call tree
  p <expr>            Print the value of <expr> as-is
  vars                List the variables of the paused frame
  quit / exit         Exit the debugger

Command names and variable names complete with Tab. History is kept in
history_file unless --no-history is given.`,
		Example: `  # Start the debugger
  schemadbg repl snapshot.yaml

  # Custom prompt and history location
  schemadbg repl snapshot.yaml --prompt '> ' --history ./.dbg_history`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: snapshotArgCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, args[0], opts)
		},
	}

	cmd.Flags().String("prompt", "", "Prompt string (default: \"(schema dbg) \")")
	cmd.Flags().String("history", "", "History file (default: ~/.schemadbg_history)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not read or write command history")

	return cmd
}

func runREPL(cmd *cobra.Command, path string, opts *REPLOptions) error {
	cc := NewCommandContext(cmd)

	s, cleanup, err := cc.OpenSession(path)
	if err != nil {
		return err
	}
	defer cleanup()

	history := cc.Cfg.HistoryFile
	if opts.NoHistory {
		history = ""
	}

	return s.Run(cmd.Context(), debugger.REPLConfig{
		Prompt:      cc.Cfg.Prompt,
		HistoryFile: history,
	})
}
