// Package pysource looks up declared field annotations in Python class sources.
//
// Lookups are best effort: a missing file, an unparsable source or an unknown
// class or field yields an error and callers are expected to fall back to
// showing no annotation.
package pysource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/leapstack-labs/schemadbg/pkg/genstack"
)

// Lookup errors.
var (
	ErrNoSource      = errors.New("class source unavailable")
	ErrSyntax        = errors.New("class source does not parse")
	ErrClassNotFound = errors.New("class definition not found")
	ErrFieldNotFound = errors.New("field annotation not found")
)

// Resolver parses class sources with tree-sitter. Parsed files are cached for
// the lifetime of the resolver. A Resolver is not safe for concurrent use.
type Resolver struct {
	parser *sitter.Parser
	files  map[string]*parsedFile
	logger *slog.Logger
}

type parsedFile struct {
	content []byte
	tree    *sitter.Tree
	err     error
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Resolver{
		parser: parser,
		files:  make(map[string]*parsedFile),
		logger: logger,
	}
}

// Close releases the parse trees held by the resolver.
func (r *Resolver) Close() {
	for _, f := range r.files {
		if f.tree != nil {
			f.tree.Close()
		}
	}
	r.files = make(map[string]*parsedFile)
}

// FieldAnnotation returns the annotation text of field as written in the class body of t.
func (r *Resolver) FieldAnnotation(t *genstack.TypeRef, field string) (string, error) {
	if t == nil || t.File == "" {
		return "", ErrNoSource
	}

	f := r.parse(t.File)
	if f.err != nil {
		return "", f.err
	}

	class := findClass(f.tree.RootNode(), f.content, t.Name, t.Line)
	if class == nil {
		return "", fmt.Errorf("%s in %s: %w", t.Name, t.File, ErrClassNotFound)
	}
	if class.HasError() {
		return "", fmt.Errorf("%s in %s: %w", t.Name, t.File, ErrSyntax)
	}

	if text, ok := fieldAnnotation(class, f.content, field); ok {
		return text, nil
	}
	return "", fmt.Errorf("%s.%s: %w", t.Name, field, ErrFieldNotFound)
}

func (r *Resolver) parse(path string) *parsedFile {
	if f, ok := r.files[path]; ok {
		return f
	}

	f := &parsedFile{}
	r.files[path] = f

	content, err := os.ReadFile(path)
	if err != nil {
		f.err = fmt.Errorf("%w: %w", ErrNoSource, err)
		return f
	}

	tree, err := r.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		f.err = fmt.Errorf("%s: %w: %w", path, ErrSyntax, err)
		return f
	}

	r.logger.Debug("parsed class source", slog.String("path", path), slog.Int("bytes", len(content)))
	f.content = content
	f.tree = tree
	return f
}

// findClass returns the class_definition named name, preferring the one
// defined at line (1-based, decorators included) when several match.
func findClass(root *sitter.Node, content []byte, name string, line int) *sitter.Node {
	var first *sitter.Node
	var found *sitter.Node

	var walk func(n *sitter.Node, decoratedAt int)
	walk = func(n *sitter.Node, decoratedAt int) {
		if found != nil {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			startLine := int(child.StartPoint().Row) + 1

			switch child.Type() {
			case "decorated_definition":
				walk(child, startLine)
				continue
			case "class_definition":
				nameNode := child.ChildByFieldName("name")
				if nameNode != nil && nameNode.Content(content) == name {
					if first == nil {
						first = child
					}
					if line > 0 && (startLine == line || decoratedAt == line) {
						found = child
						return
					}
				}
			}
			walk(child, 0)
		}
	}
	walk(root, 0)

	if found != nil {
		return found
	}
	return first
}

// fieldAnnotation scans the direct body of class for "field: <type>" statements.
func fieldAnnotation(class *sitter.Node, content []byte, field string) (string, bool) {
	body := class.ChildByFieldName("body")
	if body == nil {
		return "", false
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		typ := assign.ChildByFieldName("type")
		if left == nil || typ == nil || left.Type() != "identifier" {
			continue
		}
		if left.Content(content) == field {
			return typ.Content(content), true
		}
	}
	return "", false
}
