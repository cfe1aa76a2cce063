package output

import (
	"github.com/leapstack-labs/schemadbg/pkg/genstack"
	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// SchemaOutput is the JSON form of a pretty-printed schema.
type SchemaOutput struct {
	Expr   string      `json:"expr"`
	Schema schema.Node `json:"schema"`
}

// ContextOutput is the JSON form of the schema generation context.
type ContextOutput struct {
	Snapshot       string                   `json:"snapshot,omitempty"`
	Context        *genstack.ContextSummary `json:"context,omitempty"`
	RecursionGuard []string                 `json:"recursion_guard,omitempty"`
	Tree           []*genstack.Node         `json:"tree"`
}

// ErrorOutput is the JSON form of a command error.
type ErrorOutput struct {
	Error string `json:"error"`
}
