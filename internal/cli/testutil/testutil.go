// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/schemadbg/internal/cli/output"
)

// ModelsSource is the class source the sample snapshot points at.
const ModelsSource = `from typing import Generic, TypeVar

from pydantic import BaseModel

T = TypeVar("T")


class User(BaseModel):
    id: int
    name: str | None = None


class Box(BaseModel, Generic[T]):
    content: T
`

// SampleSnapshot is a snapshot paused while building the schema of User.name.
const SampleSnapshot = `version: 1
scope:
  schema:
    type: model
    cls: User
    custom_init: false
    root_model: false
    metadata:
      pydantic_js_functions: [f]
      title: User
    schema:
      type: model-fields
      fields:
        id: {type: model-field, schema: {type: int}, metadata: {}}
        name: {type: model-field, schema: {type: nullable, schema: {type: str}}}
  depth: 3
types:
  User: {kind: model, file: models.py, line: 8}
  Box: {kind: model, file: models.py, line: 13}
engines:
  gs0:
    model_type_stack: [User]
    field_name_stack: [name]
    definitions: {"User:1": {type: model}}
events:
  - {kind: enter_model, type: User, engine: gs0}
  - {kind: enter_field, field: id}
  - {kind: enter_field, field: name}
recursion_guard: ["Box[int]"]
`

// WriteSnapshot writes content as snapshot.yaml next to a models.py holding
// ModelsSource and returns the snapshot path.
func WriteSnapshot(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "models.py"), []byte(ModelsSource), 0o600); err != nil {
		t.Fatalf("failed to create models.py: %v", err)
	}
	path := filepath.Join(dir, "snapshot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to create snapshot.yaml: %v", err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a text-mode renderer without colour, so output
// can be compared verbatim.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, false)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
