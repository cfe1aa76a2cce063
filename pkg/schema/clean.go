package schema

import (
	"bytes"
	"math/big"
	"reflect"
)

const (
	// MetadataKey holds the metadata block of a schema.
	MetadataKey = "metadata"

	// JSMetadataKey replaces the JS schema hooks of a metadata block.
	JSMetadataKey = "js_metadata"

	// Stripped marks information removed by Clean.
	Stripped = "<stripped>"
)

// jsHookKeys are the metadata entries holding JSON schema generation callbacks.
var jsHookKeys = map[string]bool{
	"pydantic_js_functions":            true,
	"pydantic_js_annotation_functions": true,
}

// defaultKeys are dropped when their value is falsy.
var defaultKeys = map[string]bool{
	"custom_init": true,
	"root_model":  true,
}

// Clean returns a copy of node with debugging noise removed.
// Mappings, sequences and sets are rebuilt, so the result never shares
// containers with node. Typed Go slices become []any and Go maps with string
// keys become a Map.
func Clean(node Node) Node {
	switch v := node.(type) {
	case Map:
		return cleanMap(v)
	case map[string]any:
		return cleanMap(FromGoMap(v))
	case []any:
		return cleanSeq(v)
	case Set:
		out := make(Set, len(v))
		copy(out, v)
		return out
	case []byte:
		return bytes.Clone(v)
	case *big.Int:
		return new(big.Int).Set(v)
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return cleanSeq(items)
	case reflect.Map:
		if m, ok := AsMap(node); ok {
			return cleanMap(m)
		}
	}
	return node
}

func cleanSeq(seq []any) []any {
	out := make([]any, len(seq))
	for i, item := range seq {
		out[i] = Clean(item)
	}
	return out
}

func cleanMap(m Map) Map {
	out := make(Map, 0, len(m))
	for _, e := range m {
		if e.Key == MetadataKey {
			if md, ok := AsMap(e.Value); ok {
				out.Put(e.Key, cleanMetadata(md))
				continue
			}
		}
		if defaultKeys[e.Key] && !Truthy(e.Value) {
			continue
		}
		out.Put(e.Key, Clean(e.Value))
	}
	return out
}

// cleanMetadata returns either a Map or the collapse marker Set{Stripped}.
func cleanMetadata(md Map) Node {
	out := make(Map, 0, len(md))
	for _, e := range md {
		if jsHookKeys[e.Key] {
			out.Put(JSMetadataKey, Stripped)
			continue
		}
		out.Put(e.Key, Clean(e.Value))
	}

	if len(out) == 1 {
		return Set{Stripped}
	}
	return out
}
