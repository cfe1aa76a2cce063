// Package debugger implements the schema debugger commands over a snapshot.
//
// A Session answers two questions about a paused schema generation process:
// what does this schema look like without the noise (pps), and how did the
// generator get here (pc).
package debugger

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/schemadbg/internal/cli/output"
	"github.com/leapstack-labs/schemadbg/internal/pysource"
	"github.com/leapstack-labs/schemadbg/internal/snapshot"
	"github.com/leapstack-labs/schemadbg/internal/starlark"
	"github.com/leapstack-labs/schemadbg/pkg/genstack"
	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// User errors.
var (
	ErrInvalidDepth      = errors.New("invalid depth")
	ErrMissingExpression = errors.New("missing expression")
	ErrUnknownCommand    = errors.New("unknown command")
)

// Config configures a Session.
type Config struct {
	Snapshot *snapshot.Snapshot
	Renderer *output.Renderer
	// Annotations resolves field annotations for pc. Nil uses the declared
	// fields of the snapshot types, then the class sources.
	Annotations genstack.AnnotationLookup
	// MaxDepth is the pps depth used when none is given. Zero means unlimited.
	MaxDepth int
	Logger   *slog.Logger
}

// Session runs debugger commands against one snapshot.
type Session struct {
	snap        *snapshot.Snapshot
	scope       *starlark.Scope
	r           *output.Renderer
	annotations genstack.AnnotationLookup
	resolver    *pysource.Resolver
	maxDepth    int
	logger      *slog.Logger
}

// NewSession creates a session. Close releases the parsed class sources.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Snapshot == nil {
		return nil, errors.New("snapshot is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		r:           cfg.Renderer,
		annotations: cfg.Annotations,
		maxDepth:    cfg.MaxDepth,
		logger:      logger,
	}
	if s.annotations == nil {
		s.resolver = pysource.NewResolver(logger)
		s.annotations = genstack.Chain{genstack.DeclaredFields, s.resolver}
	}

	if err := s.SetSnapshot(cfg.Snapshot); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases resources held by the session.
func (s *Session) Close() {
	if s.resolver != nil {
		s.resolver.Close()
	}
}

// Snapshot returns the snapshot the session inspects.
func (s *Session) Snapshot() *snapshot.Snapshot { return s.snap }

// Renderer returns the session's renderer.
func (s *Session) Renderer() *output.Renderer { return s.r }

// SetSnapshot switches the session to snap, dropping cached class sources.
func (s *Session) SetSnapshot(snap *snapshot.Snapshot) error {
	scope, err := starlark.NewScope(snap.Scope)
	if err != nil {
		return fmt.Errorf("failed to load scope: %w", err)
	}
	s.snap = snap
	s.scope = scope
	if s.resolver != nil {
		s.resolver.Close()
	}
	return nil
}

// ScopeNames returns the names expressions can refer to.
func (s *Session) ScopeNames() []string {
	return s.scope.Names()
}

// ParseSchemaArgs splits a pps argument into the expression and an optional
// depth. The expression is the first word; a depth of 0 means none was given.
func ParseSchemaArgs(arg string) (string, int, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", 0, fmt.Errorf("%w: usage: pps <expr> [depth]", ErrMissingExpression)
	}
	if len(fields) == 1 {
		return fields[0], 0, nil
	}

	depth, err := strconv.Atoi(fields[1])
	if err != nil || depth <= 0 {
		return "", 0, fmt.Errorf("%w: Expected a positive integer for depth, got %q", ErrInvalidDepth, fields[1])
	}
	return fields[0], depth, nil
}

// PrintSchema evaluates a pps argument, cleans the result and pretty-prints it.
// Only argument errors are returned; evaluation and rendering failures are
// reported on the renderer's error stream.
func (s *Session) PrintSchema(arg string) error {
	expr, depth, err := ParseSchemaArgs(arg)
	if err != nil {
		return err
	}
	if depth == 0 {
		depth = s.maxDepth
	}

	node, err := s.scope.EvalNode(expr)
	if err != nil {
		s.r.Error(err.Error())
		return nil
	}

	cleaned := schema.Clean(node)
	s.logger.Debug("cleaned schema", slog.String("expr", expr), slog.Int("max_depth", depth))

	if err := s.renderNode(expr, cleaned, depth); err != nil {
		s.r.Error(fmt.Sprintf("failed to render schema: %v", err))
	}
	return nil
}

// PrintValue evaluates expr and prints the result without cleaning it.
func (s *Session) PrintValue(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("%w: usage: p <expr>", ErrMissingExpression)
	}

	node, err := s.scope.EvalNode(expr)
	if err != nil {
		s.r.Error(err.Error())
		return nil
	}
	if err := s.renderNode(expr, node, s.maxDepth); err != nil {
		s.r.Error(fmt.Sprintf("failed to render value: %v", err))
	}
	return nil
}

// Context builds the annotation tree and summaries for the snapshot.
func (s *Session) Context() (*genstack.Result, error) {
	return genstack.Annotate(s.snap.Events, genstack.Options{
		Annotations:    s.annotations,
		RecursionGuard: s.snap.RecursionGuard,
		Logger:         s.logger,
	})
}

// PrintContext prints the generation summaries followed by the annotation tree.
func (s *Session) PrintContext() error {
	res, err := s.Context()
	if err != nil {
		return fmt.Errorf("failed to annotate call stack: %w", err)
	}
	return s.renderContext(res)
}
