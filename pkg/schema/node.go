package schema

import (
	"bytes"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// Node is any value found in a core schema tree.
type Node = any

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value Node
}

// Map is an ordered mapping. Keys are unique; Put keeps the position of an existing key.
type Map []Entry

// Get returns the value stored under key.
func (m Map) Get(key string) (Node, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Put sets key to value, replacing the existing value in place or appending a new entry.
func (m *Map) Put(key string, value Node) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Entry{Key: key, Value: value})
}

// Keys returns the keys in order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON encodes the map as a JSON object, preserving key order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.MarshalNoEscape(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.MarshalNoEscape(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromGoMap converts an unordered Go map into a Map sorted by key.
func FromGoMap(m map[string]any) Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Map, 0, len(m))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: m[k]})
	}
	return out
}

// Set is an unordered collection of scalars. The cleaner only produces the
// one-element marker Set{Stripped}, which it never descends into.
type Set []Node

// MarshalJSON encodes the set as a JSON array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.MarshalNoEscape([]Node(s))
}

// AsMap reports whether node is a mapping and returns it as a Map.
// Go maps with string keys are sorted by key.
func AsMap(node Node) (Map, bool) {
	switch v := node.(type) {
	case Map:
		return v, true
	case map[string]any:
		return FromGoMap(v), true
	}

	rv := reflect.ValueOf(node)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return FromGoMap(m), true
}

// Truthy reports whether v would be considered true by the schema generator:
// nil, false, numeric zero, the empty string and empty containers are falsy.
func Truthy(v Node) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
