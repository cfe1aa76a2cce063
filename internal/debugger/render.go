package debugger

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/leapstack-labs/schemadbg/internal/cli/output"
	"github.com/leapstack-labs/schemadbg/pkg/genstack"
	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

// Summary labels, in print order.
const (
	labelDefinitions    = "Collected defs"
	labelModelTypeStack = "Model type stack"
	labelFieldNameStack = "Field name stack"
	labelTypevarsMap    = "Typevars map"
	labelRecursionGuard = "Generic recursion cache"
)

const (
	typeMarker  = "■"
	fieldMarker = "●"
)

// inlineWidth keeps summary values on one line.
const inlineWidth = 1 << 16

func (s *Session) renderNode(expr string, node schema.Node, depth int) error {
	switch s.r.EffectiveMode() {
	case output.ModeJSON:
		return s.r.JSON(output.SchemaOutput{Expr: expr, Schema: node})

	case output.ModeMarkdown:
		text, err := output.Pretty(node, output.PrettyOptions{MaxDepth: depth, Width: s.r.Width()})
		if err != nil {
			return err
		}
		s.r.Println(output.FormatCodeBlock("python", text))
		return nil

	default:
		muted := s.r.Styles().Muted
		text, err := output.Pretty(node, output.PrettyOptions{
			MaxDepth:     depth,
			Width:        s.r.Width(),
			IndentGuides: true,
			Guide:        func(g string) string { return muted.Render(g) },
		})
		if err != nil {
			return err
		}
		s.r.Println(text)
		return nil
	}
}

// summaryLine is one printed summary: a label with its inline value.
type summaryLine struct {
	label string
	value string
}

func summaryLines(res *genstack.Result) ([]summaryLine, error) {
	var lines []summaryLine
	if c := res.Context; c != nil {
		if len(c.Definitions) > 0 {
			lines = append(lines, summaryLine{labelDefinitions, strings.Join(c.Definitions, ", ")})
		}
		if len(c.ModelTypeStack) > 0 {
			lines = append(lines, summaryLine{labelModelTypeStack, strings.Join(c.ModelTypeStack, ", ")})
		}
		if len(c.FieldNameStack) > 0 {
			lines = append(lines, summaryLine{labelFieldNameStack, strings.Join(c.FieldNameStack, ", ")})
		}
		if len(c.TypevarsMap) > 0 {
			text, err := output.Pretty(c.TypevarsMap, output.PrettyOptions{Width: inlineWidth})
			if err != nil {
				return nil, fmt.Errorf("typevars map: %w", err)
			}
			lines = append(lines, summaryLine{labelTypevarsMap, text})
		}
	}
	if len(res.RecursionGuard) > 0 {
		guard := make(schema.Set, len(res.RecursionGuard))
		for i, g := range res.RecursionGuard {
			guard[i] = g
		}
		text, err := output.Pretty(guard, output.PrettyOptions{Width: inlineWidth})
		if err != nil {
			return nil, fmt.Errorf("recursion cache: %w", err)
		}
		lines = append(lines, summaryLine{labelRecursionGuard, text})
	}
	return lines, nil
}

func (s *Session) renderContext(res *genstack.Result) error {
	switch s.r.EffectiveMode() {
	case output.ModeJSON:
		out := output.ContextOutput{
			Snapshot:       s.snap.Path,
			Context:        res.Context,
			RecursionGuard: res.RecursionGuard,
			Tree:           res.Tree.Root.Children,
		}
		if out.Tree == nil {
			out.Tree = []*genstack.Node{}
		}
		return s.r.JSON(out)

	case output.ModeMarkdown:
		lines, err := summaryLines(res)
		if err != nil {
			return err
		}
		for _, l := range lines {
			s.r.Println(output.FormatKeyValue(l.label, output.FormatInlineCode(l.value)))
		}
		if len(lines) > 0 && !res.Tree.Empty() {
			s.r.Println("")
		}
		res.Tree.Walk(func(n *genstack.Node, depth int) {
			s.r.Println(strings.Repeat("  ", depth-1) + "- " + markdownLabel(n))
		})
		return nil

	default:
		lines, err := summaryLines(res)
		if err != nil {
			return err
		}
		styles := s.r.Styles()
		for _, l := range lines {
			s.r.Println(styles.Underline.Render(l.label+":") + " " + l.value)
		}
		if !res.Tree.Empty() {
			s.r.Println(s.textTree(res.Tree))
		}
		return nil
	}
}

// textTree draws the tree with box-drawing connectors.
func (s *Session) textTree(tree *genstack.Tree) string {
	styles := s.r.Styles()

	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	level := 0
	tree.Walk(func(n *genstack.Node, depth int) {
		for level < depth-1 {
			lw.Indent()
			level++
		}
		for level > depth-1 {
			lw.UnIndent()
			level--
		}

		var item string
		if n.Kind == genstack.NodeField {
			item = styles.Field.Render(fieldMarker + " " + n.Label)
			if n.Annotation != "" {
				item += "\n" + styles.Annotation.Render(n.Field+": "+n.Annotation)
			}
		} else {
			label := n.Label
			if n.Location != "" {
				label += " (" + n.Location + ")"
			}
			item = styles.Model.Render(typeMarker + " " + label)
		}
		lw.AppendItem(item)
	})
	return lw.Render()
}

func markdownLabel(n *genstack.Node) string {
	label := "**" + n.Label + "**"
	if n.Location != "" {
		label += " " + output.FormatInlineCode(n.Location)
	}
	if n.Annotation != "" {
		label += ": " + output.FormatInlineCode(n.Annotation)
	}
	return label
}
