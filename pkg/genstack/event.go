// Package genstack reconstructs where a paused schema generation process is.
//
// The generation process reports its progress as an ordered stream of checkpoint
// events, outermost first. Annotate folds that stream into an annotated call tree
// and summarizes the state of the innermost generation engine.
package genstack

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// EventKind identifies a recognized schema generation checkpoint.
type EventKind int

// Checkpoint kinds.
const (
	// KindEngine only reports the generation engine visible at this point.
	KindEngine EventKind = iota
	KindEnterModel
	KindEnterTypedDict
	KindEnterNamedTuple
	KindEnterField
	KindCreateModel
	KindParametrize
)

var kindNames = map[EventKind]string{
	KindEngine:          "engine",
	KindEnterModel:      "enter_model",
	KindEnterTypedDict:  "enter_typed_dict",
	KindEnterNamedTuple: "enter_named_tuple",
	KindEnterField:      "enter_field",
	KindCreateModel:     "create_model",
	KindParametrize:     "parametrize",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind parses the snake_case name of an event kind.
func ParseEventKind(s string) (EventKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// targetName is the type category shown in "Building schema for ..." labels.
func (k EventKind) targetName() string {
	switch k {
	case KindEnterTypedDict:
		return "TypedDict"
	case KindEnterNamedTuple:
		return "NamedTuple"
	default:
		return "Model"
	}
}

// TypeKind classifies a TypeRef.
type TypeKind string

// Type kinds.
const (
	TypeModel      TypeKind = "model"
	TypeTypedDict  TypeKind = "typeddict"
	TypeNamedTuple TypeKind = "namedtuple"
	TypeMetaclass  TypeKind = "metaclass"
	TypeOther      TypeKind = "other"
)

// TypeRef describes a class known to the generation process.
type TypeRef struct {
	Name string
	Kind TypeKind
	// File and Line locate the class definition. Both are optional.
	File string
	Line int
	// Fields maps field names to declared annotation text, when exported with the type.
	Fields map[string]string
}

// Location returns "<file>:L<line>", or "" when the location is unknown.
func (t *TypeRef) Location() string {
	if t == nil || t.File == "" || t.Line <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:L%d", t.File, t.Line)
}

// GenerationContext is a read-only snapshot of a generation engine's internal state.
type GenerationContext struct {
	ModelTypeStack []string
	FieldNameStack []string
	Definitions    schema.Map
	TypevarsMap    schema.Map
}

// Event is one checkpoint of the generation process.
type Event struct {
	Kind EventKind
	// Type is the class being generated, created or parametrized. It may be nil
	// for CreateModel when the class object does not exist yet.
	Type *TypeRef
	// Name is the model name for CreateModel and Parametrize.
	Name string
	// Field is the field name for EnterField.
	Field string
	// Args are the concrete type arguments of a Parametrize event.
	Args []string
	// Engine is the generation engine visible at this checkpoint, if any.
	Engine *GenerationContext
}
