// Package starlark evaluates debugger expressions against a snapshot scope.
//
// Scope values are converted to Starlark values once, so expressions such as
// schema["fields"]["id"] or [k for k in schema] run with Python-like semantics.
// Results convert back to schema nodes for cleaning and printing.
package starlark

import (
	"fmt"
	"math/big"
	"time"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// GoToStarlark converts a Go value to a Starlark value.
// schema.Map keeps its key order in the resulting dict.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case starlark.Value:
		return val, nil

	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case uint64:
		return starlark.MakeUint64(val), nil

	case *big.Int:
		return starlark.MakeBigInt(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case time.Time:
		return starlark.String(val.Format(time.RFC3339)), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case schema.Set:
		set := starlark.NewSet(len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("set item %d: %w", i, err)
			}
			if err := set.Insert(sv); err != nil {
				return nil, fmt.Errorf("set item %d: %w", i, err)
			}
		}
		return set, nil

	case schema.Map:
		dict := starlark.NewDict(len(val))
		for _, e := range val {
			sv, err := GoToStarlark(e.Value)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", e.Key, err)
			}
			if err := dict.SetKey(starlark.String(e.Key), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", e.Key, err)
			}
		}
		return dict, nil

	case map[string]any:
		return GoToStarlark(schema.FromGoMap(val))

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a schema node.
// Dicts become schema.Map in insertion order and sets become schema.Set.
// Ints outside the int64 range become *big.Int.
// Values with no node equivalent are returned as their Starlark repr.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		if i64, ok := val.Int64(); ok {
			return i64, nil
		}
		return val.BigInt(), nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Set:
		result := make(schema.Set, 0, val.Len())
		iter := val.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			gv, err := ToGo(item)
			if err != nil {
				return nil, fmt.Errorf("set item: %w", err)
			}
			result = append(result, gv)
		}
		return result, nil

	case *starlark.Dict:
		result := make(schema.Map, 0, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result = append(result, schema.Entry{Key: string(key), Value: gv})
		}
		return result, nil

	default:
		return val.String(), nil
	}
}
