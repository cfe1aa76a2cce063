package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DefaultPrompt is the REPL prompt.
const DefaultPrompt = "(schema dbg) "

// LineReader reads one line of input at a time. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
}

// REPLConfig configures Run.
type REPLConfig struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
}

// Exec runs one debugger command line. quit is true for quit and exit.
func (s *Session) Exec(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	command := strings.Fields(line)[0]
	arg := strings.TrimSpace(line[len(command):])
	switch strings.ToLower(command) {
	case "pps":
		return false, s.PrintSchema(arg)
	case "pc":
		return false, s.PrintContext()
	case "p":
		return false, s.PrintValue(arg)
	case "vars":
		s.r.Println(strings.Join(s.ScopeNames(), "  "))
		return false, nil
	case "help", "h", "?":
		s.printHelp()
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s (type help for commands)", ErrUnknownCommand, command)
	}
}

// Run starts an interactive prompt on the terminal.
func (s *Session) Run(ctx context.Context, cfg REPLConfig) error {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdin:           cfg.Stdin,
		Stdout:          s.r.Writer(),
		Stderr:          s.r.ErrWriter(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.r.Printf("Schema debugger (snapshot: %s)\n", s.snap.Path)
	s.r.Println("Type help for commands, quit to exit")
	s.r.Println()

	return s.Loop(ctx, rl)
}

// Loop reads and executes command lines until quit, end of input or ctx is done.
// Command errors are reported and the loop continues.
func (s *Session) Loop(ctx context.Context, in LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		quit, err := s.Exec(line)
		if err != nil {
			s.r.Error(err.Error())
		}
		if quit {
			return nil
		}
	}
}

func (s *Session) completer() *readline.PrefixCompleter {
	names := readline.PcItemDynamic(func(string) []string {
		return s.ScopeNames()
	})
	return readline.NewPrefixCompleter(
		readline.PcItem("pps", names),
		readline.PcItem("p", names),
		readline.PcItem("pc"),
		readline.PcItem("vars"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}

func (s *Session) printHelp() {
	s.r.Header(2, "Commands")
	s.r.Println(`  pps <expr> [depth]  Pretty-print the cleaned core schema <expr> evaluates to
  pc                  Show the schema generation context and call tree
  p <expr>            Print the value of <expr> as-is
  vars                List the variables of the paused frame
  help                Show this help message
  quit / exit         Exit the debugger`)
	s.r.Println()
	s.r.Header(2, "Tips")
	s.r.Println(`  - <expr> is a single word: schema["fields"]["id"], not schema ["fields"]
  - depth limits container nesting; deeper containers print as {...} or [...]
  - Tab completion works for commands and variable names`)
}
