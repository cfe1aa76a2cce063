package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// Predeclared returns the builtins available to every expression.
// A scope variable of the same name shadows the builtin.
//
//	clean(node) -> node with metadata hooks and falsy defaults stripped
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"clean": starlark.NewBuiltin("clean", cleanBuiltin),
	}
}

func cleanBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var node starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &node); err != nil {
		return nil, err
	}

	goVal, err := ToGo(node)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	out, err := GoToStarlark(schema.Clean(goVal))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return out, nil
}
