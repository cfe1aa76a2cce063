// Package snapshot loads breakpoint snapshots exported by a paused schema
// generation process.
//
// A snapshot stands in for the debugger's live view of the process: the local
// scope of the paused frame, the classes involved, the generation engines and
// the checkpoint stream (or raw call frames) leading to the breakpoint.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/schemadbg/pkg/genstack"
	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// ErrUnsupportedFormat is returned for snapshot files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Local values referring to registered types and engines.
const (
	typeRefKey   = "$type"
	engineRefKey = "$engine"
)

// Snapshot is the state of a paused generation process.
type Snapshot struct {
	// Path is the file the snapshot was loaded from, if any.
	Path       string
	SourceRoot string
	// Scope holds the local variables of the paused frame, in definition order.
	Scope          schema.Map
	Types          map[string]*genstack.TypeRef
	Engines        map[string]*genstack.GenerationContext
	Events         []genstack.Event
	RecursionGuard []string
	// Warnings describe entries that were skipped or could not be resolved.
	Warnings []string
}

// ScopeNames returns the names of the scope variables, sorted.
func (s *Snapshot) ScopeNames() []string {
	names := s.Scope.Keys()
	sort.Strings(names)
	return names
}

type rawSnapshot struct {
	Version        int                  `yaml:"version"`
	SourceRoot     string               `yaml:"source_root"`
	Scope          yaml.Node            `yaml:"scope"`
	Types          map[string]rawType   `yaml:"types"`
	Engines        map[string]rawEngine `yaml:"engines"`
	Events         []rawEvent           `yaml:"events"`
	Frames         []rawFrame           `yaml:"frames"`
	RecursionGuard []string             `yaml:"recursion_guard"`
}

type rawType struct {
	Kind   string            `yaml:"kind"`
	File   string            `yaml:"file"`
	Line   int               `yaml:"line"`
	Fields map[string]string `yaml:"fields"`
}

type rawEngine struct {
	ModelTypeStack []string  `yaml:"model_type_stack"`
	FieldNameStack []string  `yaml:"field_name_stack"`
	Definitions    yaml.Node `yaml:"definitions"`
	TypevarsMap    yaml.Node `yaml:"typevars_map"`
}

type rawEvent struct {
	Kind   string   `yaml:"kind"`
	Type   string   `yaml:"type"`
	Name   string   `yaml:"name"`
	Field  string   `yaml:"field"`
	Args   []string `yaml:"args"`
	Engine string   `yaml:"engine"`
}

type rawFrame struct {
	Function string    `yaml:"function"`
	Locals   yaml.Node `yaml:"locals"`
}

// Option configures loading.
type Option func(*loader)

// WithLogger sets the logger used to report skipped entries.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSourceRoot overrides the snapshot's source_root.
func WithSourceRoot(dir string) Option {
	return func(l *loader) {
		l.sourceRoot = dir
	}
}

type loader struct {
	logger     *slog.Logger
	sourceRoot string
	snap       *Snapshot
}

// Load reads a snapshot file. Relative class files resolve against the
// snapshot's source_root, or the snapshot's directory when none is set.
func Load(path string, opts ...Option) (*Snapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	snap, err := Parse(data, filepath.Dir(abs), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snap.Path = abs
	return snap, nil
}

// Parse decodes snapshot data. baseDir anchors a relative source_root.
func Parse(data []byte, baseDir string, opts ...Option) (*Snapshot, error) {
	var raw rawSnapshot
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	l := &loader{logger: slog.New(slog.DiscardHandler), sourceRoot: raw.SourceRoot}
	for _, opt := range opts {
		opt(l)
	}
	if l.sourceRoot == "" {
		l.sourceRoot = baseDir
	} else if !filepath.IsAbs(l.sourceRoot) && baseDir != "" {
		l.sourceRoot = filepath.Join(baseDir, l.sourceRoot)
	}

	l.snap = &Snapshot{
		SourceRoot:     l.sourceRoot,
		Types:          make(map[string]*genstack.TypeRef, len(raw.Types)),
		Engines:        make(map[string]*genstack.GenerationContext, len(raw.Engines)),
		RecursionGuard: raw.RecursionGuard,
	}

	scope, err := schema.FromYAML(&raw.Scope)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	if scope != nil {
		m, ok := scope.(schema.Map)
		if !ok {
			return nil, fmt.Errorf("scope: expected a mapping, got %T", scope)
		}
		l.snap.Scope = m
	}

	for name, rt := range raw.Types {
		l.snap.Types[name] = l.typeRef(name, rt)
	}

	for id, re := range raw.Engines {
		gc, err := decodeEngine(re)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", id, err)
		}
		l.snap.Engines[id] = gc
	}

	if len(raw.Events) > 0 {
		l.snap.Events = l.events(raw.Events)
	} else if len(raw.Frames) > 0 {
		frames, err := l.frames(raw.Frames)
		if err != nil {
			return nil, err
		}
		l.snap.Events = genstack.FromFrames(frames)
	}

	return l.snap, nil
}

func (l *loader) typeRef(name string, rt rawType) *genstack.TypeRef {
	kind := genstack.TypeKind(strings.ToLower(rt.Kind))
	if kind == "" {
		kind = genstack.TypeOther
	}
	return &genstack.TypeRef{
		Name:   name,
		Kind:   kind,
		File:   l.canonical(rt.File),
		Line:   rt.Line,
		Fields: rt.Fields,
	}
}

// canonical returns the absolute, cleaned path of a class file.
func (l *loader) canonical(path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.sourceRoot, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// lookupType resolves a type name, registering a bare TypeRef for unknown names.
func (l *loader) lookupType(name string) *genstack.TypeRef {
	if name == "" {
		return nil
	}
	if t, ok := l.snap.Types[name]; ok {
		return t
	}
	t := &genstack.TypeRef{Name: name, Kind: genstack.TypeOther}
	l.snap.Types[name] = t
	return t
}

func (l *loader) lookupEngine(id string, index int) *genstack.GenerationContext {
	if id == "" {
		return nil
	}
	gc, ok := l.snap.Engines[id]
	if !ok {
		l.logger.Warn("unknown engine reference", slog.Int("index", index), slog.String("engine", id))
		l.warnf("event %d: unknown engine %q", index, id)
	}
	return gc
}

func (l *loader) warnf(format string, args ...any) {
	l.snap.Warnings = append(l.snap.Warnings, fmt.Sprintf(format, args...))
}

func (l *loader) events(raw []rawEvent) []genstack.Event {
	events := make([]genstack.Event, 0, len(raw))
	for i, re := range raw {
		kind, err := genstack.ParseEventKind(re.Kind)
		if err != nil {
			l.logger.Warn("skipping event", slog.Int("index", i), slog.String("error", err.Error()))
			l.warnf("event %d skipped: %v", i, err)
			continue
		}
		events = append(events, genstack.Event{
			Kind:   kind,
			Type:   l.lookupType(re.Type),
			Name:   re.Name,
			Field:  re.Field,
			Args:   re.Args,
			Engine: l.lookupEngine(re.Engine, i),
		})
	}
	return events
}

func (l *loader) frames(raw []rawFrame) ([]genstack.Frame, error) {
	frames := make([]genstack.Frame, 0, len(raw))
	for i, rf := range raw {
		locals, err := schema.FromYAML(&rf.Locals)
		if err != nil {
			return nil, fmt.Errorf("frame %d locals: %w", i, err)
		}

		f := genstack.Frame{Function: rf.Function, Locals: map[string]any{}}
		if m, ok := locals.(schema.Map); ok {
			for _, e := range m {
				f.Locals[e.Key] = l.resolveLocal(e.Value, i)
			}
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// resolveLocal replaces {$type: name} and {$engine: id} references.
func (l *loader) resolveLocal(v any, index int) any {
	switch x := v.(type) {
	case schema.Map:
		if len(x) == 1 {
			name, _ := x[0].Value.(string)
			switch x[0].Key {
			case typeRefKey:
				return l.lookupType(name)
			case engineRefKey:
				if gc := l.lookupEngine(name, index); gc != nil {
					return gc
				}
				return nil
			}
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = l.resolveLocal(item, index)
		}
		return out
	default:
		return v
	}
}

func decodeEngine(re rawEngine) (*genstack.GenerationContext, error) {
	gc := &genstack.GenerationContext{
		ModelTypeStack: re.ModelTypeStack,
		FieldNameStack: re.FieldNameStack,
	}

	defs, err := schema.FromYAML(&re.Definitions)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	if m, ok := defs.(schema.Map); ok {
		gc.Definitions = m
	}

	typevars, err := schema.FromYAML(&re.TypevarsMap)
	if err != nil {
		return nil, fmt.Errorf("typevars_map: %w", err)
	}
	if m, ok := typevars.(schema.Map); ok {
		gc.TypevarsMap = m
	}
	return gc, nil
}
