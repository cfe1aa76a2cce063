package debugger

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/schemadbg/internal/cli/testutil"
	"github.com/leapstack-labs/schemadbg/internal/snapshot"
	logtest "github.com/leapstack-labs/schemadbg/internal/testutil"
	"github.com/leapstack-labs/schemadbg/pkg/genstack"
)

func newSession(t *testing.T, tr *testutil.TestRenderer, content string, maxDepth int) (*Session, string) {
	t.Helper()
	path := testutil.WriteSnapshot(t, content)
	snap, err := snapshot.Load(path)
	require.NoError(t, err)

	s, err := NewSession(Config{
		Snapshot: snap,
		Renderer: tr.Renderer,
		MaxDepth: maxDepth,
		Logger:   logtest.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, filepath.Dir(snap.Path)
}

func TestParseSchemaArgs(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		wantExpr  string
		wantDepth int
		wantErr   error
		wantMsg   string
	}{
		{name: "expression only", arg: "schema", wantExpr: "schema"},
		{name: "with depth", arg: " schema  2 ", wantExpr: "schema", wantDepth: 2},
		{name: "extra words ignored", arg: "schema 2 extra", wantExpr: "schema", wantDepth: 2},
		{name: "empty", arg: "  ", wantErr: ErrMissingExpression},
		{name: "zero depth", arg: "schema 0", wantErr: ErrInvalidDepth, wantMsg: `Expected a positive integer for depth, got "0"`},
		{name: "negative depth", arg: "schema -1", wantErr: ErrInvalidDepth, wantMsg: `got "-1"`},
		{name: "non-numeric depth", arg: "schema deep", wantErr: ErrInvalidDepth, wantMsg: `got "deep"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, depth, err := ParseSchemaArgs(tt.arg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExpr, expr)
			assert.Equal(t, tt.wantDepth, depth)
		})
	}
}

func TestNewSession_Validation(t *testing.T) {
	tr := testutil.NewTestRendererText()
	snap := &snapshot.Snapshot{}

	_, err := NewSession(Config{Renderer: tr.Renderer})
	assert.Error(t, err)

	_, err = NewSession(Config{Snapshot: snap})
	assert.Error(t, err)

	_, err = NewSession(Config{Snapshot: snap, Renderer: tr.Renderer, MaxDepth: -1})
	assert.Error(t, err)

	s, err := NewSession(Config{Snapshot: snap, Renderer: tr.Renderer})
	require.NoError(t, err)
	s.Close()
}

func TestSession_PrintSchema_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintSchema("schema 1"))
	assert.Equal(t, "{'type': 'model', 'cls': 'User', 'metadata': {...}, 'schema': {...}}\n", tr.Output())
	assert.Empty(t, tr.ErrorOutput())

	tr.Reset()
	require.NoError(t, s.PrintSchema(`schema["metadata"]`))
	assert.Equal(t, "{'pydantic_js_functions': ['f'], 'title': 'User'}\n", tr.Output(), "a metadata block is only merged under a metadata key")

	tr.Reset()
	require.NoError(t, s.PrintSchema(`schema["schema"]["fields"]["id"]`))
	assert.Equal(t, "{'type': 'model-field', 'schema': {'type': 'int'}, 'metadata': {}}\n", tr.Output())
}

func TestSession_PrintSchema_Expanded(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintSchema("schema"))
	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	assert.True(t, strings.HasPrefix(out, "{\n│   'type': 'model',\n│   'cls': 'User',\n"), "got %q", out)
	assert.Contains(t, out, "'metadata': {'js_metadata': '<stripped>', 'title': 'User'}")
	assert.NotContains(t, out, "custom_init")
	assert.NotContains(t, out, "root_model")
	assert.NotContains(t, out, "pydantic_js_functions")
}

func TestSession_PrintSchema_DefaultDepth(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 1)

	require.NoError(t, s.PrintSchema(`schema["schema"]`))
	assert.Equal(t, "{'type': 'model-fields', 'fields': {...}}\n", tr.Output())

	tr.Reset()
	require.NoError(t, s.PrintSchema(`schema["schema"] 2`))
	assert.Equal(t, "{'type': 'model-fields', 'fields': {'id': {...}, 'name': {...}}}\n", tr.Output())
}

func TestSession_PrintSchema_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintSchema(`schema["schema"]["fields"]["id"]`))
	assert.Equal(t, "```python\n{'type': 'model-field', 'schema': {'type': 'int'}, 'metadata': {}}\n```\n", tr.Output())
	testutil.AssertValidMarkdown(t, tr.Output())
}

func TestSession_PrintSchema_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 1)

	require.NoError(t, s.PrintSchema(`schema["schema"]["fields"]["name"]`))
	assert.JSONEq(t, `{
		"expr": "schema[\"schema\"][\"fields\"][\"name\"]",
		"schema": {"type": "model-field", "schema": {"type": "nullable", "schema": {"type": "str"}}}
	}`, tr.Output())
}

func TestSession_PrintSchema_Errors(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	err := s.PrintSchema("schema 0")
	assert.ErrorIs(t, err, ErrInvalidDepth)
	assert.Empty(t, tr.Output())

	require.NoError(t, s.PrintSchema("nope"))
	assert.Empty(t, tr.Output())
	assert.Contains(t, tr.ErrorOutput(), "Error: ")
	assert.Contains(t, tr.ErrorOutput(), "undefined: nope")
}

func TestSession_PrintValue(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintValue("depth + 1"))
	assert.Equal(t, "4\n", tr.Output())

	tr.Reset()
	require.NoError(t, s.PrintValue(`schema["root_model"]`))
	assert.Equal(t, "False\n", tr.Output())

	tr.Reset()
	require.NoError(t, s.PrintValue(`clean(schema)["metadata"]`))
	assert.Equal(t, "{'js_metadata': '<stripped>', 'title': 'User'}\n", tr.Output())

	assert.ErrorIs(t, s.PrintValue(""), ErrMissingExpression)
}

func TestSession_PrintContext_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, dir := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintContext())
	out := tr.Output()
	testutil.AssertNoANSI(t, out)

	models := filepath.Join(dir, "models.py")
	want := []string{
		"Collected defs: User:1",
		"Model type stack: User",
		"Field name stack: name",
		"Generic recursion cache: {'Box[int]'}",
		"╭─ ■ Building schema for Model 'User' (" + models + ":L8)",
		"├─ ● Field 'id'",
		"│  id: int",
		"╰─ ● Field 'name'",
		"   name: str | None",
	}
	got := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pc output mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_PrintContext_Nested(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, `
types:
  Box: {kind: model, fields: {content: T}}
events:
  - {kind: parametrize, type: Box, args: [int]}
  - {kind: create_model, name: "Box[int]"}
  - {kind: enter_model, type: Box}
  - {kind: enter_field, field: content}
`, 0)

	require.NoError(t, s.PrintContext())
	want := []string{
		"── ■ Parametrizing model 'Box' with types: (int)",
		"   ╰─ ■ Creating Model 'Box[int]'",
		"      ├─ ■ Building schema for Model 'Box'",
		"      ╰─ ● Field 'content'",
		"         content: T",
	}
	got := strings.Split(strings.TrimSuffix(tr.Output(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pc output mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_PrintContext_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	s, dir := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintContext())
	out := tr.Output()
	testutil.AssertValidMarkdown(t, out)

	assert.Contains(t, out, "- **Collected defs:** `User:1`\n")
	assert.Contains(t, out, "- **Generic recursion cache:** `{'Box[int]'}`\n")
	assert.Contains(t, out, "- **Building schema for Model 'User'** `"+filepath.Join(dir, "models.py")+":L8`\n")
	assert.Contains(t, out, "- **Field 'name'**: `str | None`\n")
}

func TestSession_PrintContext_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	require.NoError(t, s.PrintContext())

	var got struct {
		Context        genstack.ContextSummary `json:"context"`
		RecursionGuard []string                `json:"recursion_guard"`
		Tree           []genstack.Node         `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))

	assert.Equal(t, []string{"User:1"}, got.Context.Definitions)
	assert.Equal(t, []string{"Box[int]"}, got.RecursionGuard)
	require.Len(t, got.Tree, 3)
	assert.Equal(t, genstack.NodeBuildSchema, got.Tree[0].Kind)
	assert.Equal(t, "int", got.Tree[1].Annotation)
	assert.Equal(t, "name", got.Tree[2].Field)
}

func TestSession_PrintContext_Empty(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	s, _ := newSession(t, tr, "scope: {}\n", 0)

	require.NoError(t, s.PrintContext())
	assert.JSONEq(t, `{"snapshot": "`+s.Snapshot().Path+`", "tree": []}`, tr.Output())
}

func TestSession_PrintContext_FieldOutsideType(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, "events: [{kind: enter_field, field: x}]\n", 0)

	err := s.PrintContext()
	assert.ErrorIs(t, err, genstack.ErrFieldOutsideType)
}

func TestSession_CustomAnnotations(t *testing.T) {
	tr := testutil.NewTestRendererText()
	path := testutil.WriteSnapshot(t, testutil.SampleSnapshot)
	snap, err := snapshot.Load(path)
	require.NoError(t, err)

	s, err := NewSession(Config{
		Snapshot: snap,
		Renderer: tr.Renderer,
		Annotations: genstack.LookupFunc(func(_ *genstack.TypeRef, field string) (string, error) {
			return "custom_" + field, nil
		}),
	})
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Context()
	require.NoError(t, err)
	assert.Equal(t, "custom_id", res.Tree.Root.Children[1].Annotation)
}

func TestSession_SetSnapshot(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)
	assert.Contains(t, s.ScopeNames(), "schema")

	next, err := snapshot.Parse([]byte("scope: {other: 1}\n"), "")
	require.NoError(t, err)
	require.NoError(t, s.SetSnapshot(next))

	assert.Equal(t, []string{"clean", "other"}, s.ScopeNames())
	assert.Same(t, next, s.Snapshot())
}

func TestSession_Exec(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	tests := []struct {
		name     string
		line     string
		wantQuit bool
		wantErr  error
		wantOut  string
	}{
		{name: "blank", line: "   "},
		{name: "pps", line: `pps schema["metadata"]`, wantOut: "{'pydantic_js_functions': ['f'], 'title': 'User'}\n"},
		{name: "pps bad depth", line: "pps schema x", wantErr: ErrInvalidDepth},
		{name: "p", line: "p depth", wantOut: "3\n"},
		{name: "vars", line: "vars", wantOut: "clean  depth  schema\n"},
		{name: "uppercase command", line: "VARS", wantOut: "clean  depth  schema\n"},
		{name: "unknown", line: "frobnicate now", wantErr: ErrUnknownCommand},
		{name: "quit", line: "quit", wantQuit: true},
		{name: "exit", line: "exit", wantQuit: true},
		{name: "q", line: "q", wantQuit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr.Reset()
			quit, err := s.Exec(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantQuit, quit)
			if tt.wantOut != "" {
				assert.Equal(t, tt.wantOut, tr.Output())
			}
		})
	}
}

func TestSession_Help(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	quit, err := s.Exec("help")
	require.NoError(t, err)
	assert.False(t, quit)
	for _, cmd := range []string{"pps <expr> [depth]", "pc", "p <expr>", "vars", "quit / exit"} {
		assert.Contains(t, tr.Output(), cmd)
	}
	assert.True(t, strings.HasPrefix(tr.Output(), "Commands\n"), "got %q", tr.Output())
	assert.Contains(t, tr.Output(), "\nTips\n")

	md := testutil.NewTestRendererMarkdown()
	s, _ = newSession(t, md, testutil.SampleSnapshot, 0)
	_, err = s.Exec("help")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md.Output(), "## Commands\n"), "got %q", md.Output())
	assert.Contains(t, md.Output(), "## Tips\n")
}

// scriptReader replays lines, then io.EOF.
type scriptReader struct {
	lines []string
	errs  map[int]error
	pos   int
}

func (r *scriptReader) Readline() (string, error) {
	if err, ok := r.errs[r.pos]; ok {
		r.pos++
		return "", err
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return line, nil
}

func TestSession_Loop(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	in := &scriptReader{
		lines: []string{"p depth", "bogus", "pps schema 0", `p schema["cls"]`, "quit", "p depth"},
		errs:  map[int]error{},
	}
	require.NoError(t, s.Loop(t.Context(), in))

	assert.Equal(t, "3\n'User'\n", tr.Output())
	assert.Contains(t, tr.ErrorOutput(), "unknown command: bogus")
	assert.Contains(t, tr.ErrorOutput(), `Expected a positive integer for depth, got "0"`)
	assert.Equal(t, 5, in.pos)
}

func TestSession_LoopInterruptAndEOF(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	in := &scriptReader{lines: []string{"p depth"}, errs: map[int]error{0: readline.ErrInterrupt}}
	require.NoError(t, s.Loop(t.Context(), in))
	assert.Empty(t, tr.Output())
}

func TestSession_LoopCancelled(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	in := &scriptReader{lines: []string{"p depth"}}
	require.NoError(t, s.Loop(ctx, in))
	assert.Equal(t, 0, in.pos)
}

func TestSession_Completer(t *testing.T) {
	tr := testutil.NewTestRendererText()
	s, _ := newSession(t, tr, testutil.SampleSnapshot, 0)

	c := s.completer()
	candidates, offset := c.Do([]rune("pps sc"), len("pps sc"))
	require.Len(t, candidates, 1)
	assert.Equal(t, "hema ", string(candidates[0]))
	assert.Equal(t, 2, offset)
}
