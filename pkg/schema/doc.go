// Package schema models core schema dumps and strips them down for display.
//
// # Node Shapes
//
// A core schema is an untyped, self-similar tree. Every value is a Node, which is one of:
//
//   - Map: an ordered mapping of string keys to nodes (a plain map[string]any is also
//     accepted and visited in sorted key order)
//   - []any: a sequence of nodes
//   - Set: the one-element marker left behind when a metadata block collapses
//   - anything else: an opaque scalar
//
// # Cleaning
//
// Clean removes internal artifacts that are noise when debugging schema generation:
//
//	cleaned := schema.Clean(node)
//
// JS schema hooks in metadata blocks are replaced by a single "js_metadata" marker entry,
// falsy "custom_init" and "root_model" defaults are dropped, and a metadata block that is
// left with a single entry collapses to Set{"<stripped>"}. The collapse discards the name
// of the surviving key.
//
// # Decoding
//
// FromYAML converts a yaml.v3 node tree into Nodes while keeping mapping order. Because JSON
// is a subset of YAML, the same path handles JSON dumps.
package schema
