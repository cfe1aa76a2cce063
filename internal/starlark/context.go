package starlark

import (
	"fmt"
	"sort"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// exprFile is the file name reported for evaluated expressions.
const exprFile = "<expr>"

// Scope holds the globals expressions are evaluated against: the converted
// variables of a paused frame plus the builtins.
type Scope struct {
	globals starlark.StringDict
	names   []string
}

// NewScope converts the variables in vars to Starlark values.
func NewScope(vars schema.Map) (*Scope, error) {
	globals := Predeclared()
	for _, e := range vars {
		v, err := GoToStarlark(e.Value)
		if err != nil {
			return nil, fmt.Errorf("scope variable %q: %w", e.Key, err)
		}
		globals[e.Key] = v
	}
	globals.Freeze()

	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Scope{globals: globals, names: names}, nil
}

// Names returns every name an expression can refer to, sorted.
func (s *Scope) Names() []string {
	return s.names
}

// Eval evaluates a single expression.
func (s *Scope) Eval(expr string) (starlark.Value, error) {
	thread := newThread()
	result, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, exprFile, expr, s.globals)
	if err != nil {
		return nil, newEvalError(expr, err)
	}
	return result, nil
}

// EvalNode evaluates expr and converts the result to a schema node.
func (s *Scope) EvalNode(expr string) (schema.Node, error) {
	v, err := s.Eval(expr)
	if err != nil {
		return nil, err
	}
	node, err := ToGo(v)
	if err != nil {
		return nil, &EvalError{Expr: expr, Message: err.Error()}
	}
	return node, nil
}

func newThread() *starlark.Thread {
	return &starlark.Thread{
		Name: exprFile,
		Print: func(_ *starlark.Thread, _ string) {
			// expressions should not print
		},
	}
}

// EvalError represents an error during expression evaluation.
type EvalError struct {
	Line    int
	Col     int
	Expr    string
	Message string
}

func newEvalError(expr string, err error) *EvalError {
	e := &EvalError{Expr: expr, Message: err.Error()}
	switch x := err.(type) {
	case syntax.Error:
		e.Line, e.Col = int(x.Pos.Line), int(x.Pos.Col)
		e.Message = x.Msg
	case resolve.ErrorList:
		if len(x) > 0 {
			e.Line, e.Col = int(x[0].Pos.Line), int(x[0].Pos.Col)
			e.Message = x[0].Msg
		}
	case *starlark.EvalError:
		e.Message = x.Msg
	}
	return e
}

func (e *EvalError) Error() string {
	if e.Col > 0 {
		return fmt.Sprintf("error evaluating %q at column %d: %s", e.Expr, e.Col, e.Message)
	}
	return fmt.Sprintf("error evaluating %q: %s", e.Expr, e.Message)
}
