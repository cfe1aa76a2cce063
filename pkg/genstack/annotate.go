package genstack

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// ErrFieldOutsideType is returned when a field checkpoint is not preceded by a
// checkpoint entering a model, TypedDict or NamedTuple.
var ErrFieldOutsideType = errors.New("field checkpoint without an enclosing type")

// Options configures Annotate.
type Options struct {
	// Annotations resolves declared field types. Nil means annotations are never shown.
	Annotations AnnotationLookup
	// RecursionGuard is the set of generic parametrizations currently being resolved.
	RecursionGuard []string
	Logger         *slog.Logger
}

// ContextSummary is the state of the innermost generation engine.
// Empty parts are left nil.
type ContextSummary struct {
	Definitions    []string   `json:"definitions,omitempty"`
	ModelTypeStack []string   `json:"model_type_stack,omitempty"`
	FieldNameStack []string   `json:"field_name_stack,omitempty"`
	TypevarsMap    schema.Map `json:"typevars_map,omitempty"`
}

// Result is the outcome of Annotate.
type Result struct {
	Tree *Tree
	// Context is nil when no generation engine was seen or its state is empty.
	Context *ContextSummary
	// RecursionGuard is nil when no generic parametrization is in progress.
	RecursionGuard []string
}

// Annotate folds checkpoint events, outermost first, into an annotation tree.
//
// Checkpoints entering a model, TypedDict or NamedTuple add a node under the current
// cursor and become the subject of the following field checkpoints, while model creation
// and parametrization checkpoints add a node and move the cursor into it.
func Annotate(events []Event, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tree := NewTree()
	cursor := tree.Root
	var subject *TypeRef
	var engine *GenerationContext

	for i, ev := range events {
		if ev.Engine != nil {
			engine = ev.Engine
		}

		switch ev.Kind {
		case KindEngine:
			// engine already recorded

		case KindEnterModel, KindEnterTypedDict, KindEnterNamedTuple:
			t := ev.Type
			if t == nil {
				t = &TypeRef{Name: ev.Name}
			}
			subject = t
			cursor.add(&Node{
				Kind:     NodeBuildSchema,
				Label:    fmt.Sprintf("Building schema for %s '%s'", ev.Kind.targetName(), t.Name),
				Location: t.Location(),
			})

		case KindEnterField:
			if subject == nil {
				return nil, fmt.Errorf("event %d: field %q: %w", i, ev.Field, ErrFieldOutsideType)
			}
			cursor.add(&Node{
				Kind:       NodeField,
				Label:      fmt.Sprintf("Field '%s'", ev.Field),
				Field:      ev.Field,
				Annotation: fieldAnnotation(opts.Annotations, subject, ev.Field, logger),
			})

		case KindCreateModel:
			n := &Node{Kind: NodeCreateModel}
			if ev.Type != nil {
				n.Label = fmt.Sprintf("Creating Model '%s'", ev.Type.Name)
				n.Location = ev.Type.Location()
			} else {
				n.Label = fmt.Sprintf("Creating Model '%s'", ev.Name)
			}
			cursor = cursor.add(n)

		case KindParametrize:
			cursor = cursor.add(&Node{
				Kind:  NodeParametrize,
				Label: parametrizeLabel(ev),
			})

		default:
			logger.Debug("skipping unknown checkpoint", slog.Int("index", i), slog.String("kind", ev.Kind.String()))
		}
	}

	res := &Result{Tree: tree}
	if engine != nil {
		res.Context = summarize(engine)
	}
	if len(opts.RecursionGuard) > 0 {
		res.RecursionGuard = slices.Clone(opts.RecursionGuard)
	}
	return res, nil
}

func parametrizeLabel(ev Event) string {
	if ev.Name != "" {
		return fmt.Sprintf("Parametrizing model '%s'", ev.Name)
	}
	origin := ""
	if ev.Type != nil {
		origin = ev.Type.Name
	}
	return fmt.Sprintf("Parametrizing model '%s' with types: (%s)", origin, strings.Join(ev.Args, ", "))
}

func fieldAnnotation(lookup AnnotationLookup, t *TypeRef, field string, logger *slog.Logger) string {
	if lookup == nil {
		return ""
	}
	text, err := lookup.FieldAnnotation(t, field)
	if err != nil {
		logger.Debug("field annotation unavailable",
			slog.String("type", t.Name),
			slog.String("field", field),
			slog.String("error", err.Error()))
		return ""
	}
	return text
}

func summarize(gc *GenerationContext) *ContextSummary {
	s := &ContextSummary{}
	if len(gc.Definitions) > 0 {
		s.Definitions = gc.Definitions.Keys()
	}
	if len(gc.ModelTypeStack) > 0 {
		s.ModelTypeStack = slices.Clone(gc.ModelTypeStack)
	}
	if len(gc.FieldNameStack) > 0 {
		s.FieldNameStack = slices.Clone(gc.FieldNameStack)
	}
	if len(gc.TypevarsMap) > 0 {
		s.TypevarsMap = slices.Clone(gc.TypevarsMap)
	}

	if s.Definitions == nil && s.ModelTypeStack == nil && s.FieldNameStack == nil && s.TypevarsMap == nil {
		return nil
	}
	return s
}
