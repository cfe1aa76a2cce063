package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewPPSCommand creates the pps command.
func NewPPSCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pps <snapshot> <expr> [depth]",
		Short: "Pretty-print a cleaned core schema",
		Long: `Evaluate an expression over the variables of a snapshot and pretty-print
the core schema it yields, with serialization noise removed.

The expression is a single word. Metadata keeps only what matters for
debugging, default-false flags are dropped and JSON schema hooks are shown
as '<stripped>'. Containers nested deeper than depth print as {...} or [...].`,
		Example: `  # Print the whole schema
  schemadbg pps snapshot.yaml schema

  # Print one field, two levels deep
  schemadbg pps snapshot.yaml 'schema["schema"]["fields"]["id"]' 2

  # Emit JSON for scripting
  schemadbg pps snapshot.yaml schema -o json`,
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: snapshotArgCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPPS(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
	return cmd
}

func runPPS(cmd *cobra.Command, path, arg string) error {
	cc := NewCommandContext(cmd)

	s, cleanup, err := cc.OpenSession(path)
	if err != nil {
		return err
	}
	defer cleanup()

	return s.PrintSchema(arg)
}
