package output

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/schemadbg/pkg/schema"
)

const indentWidth = 4

// PrettyOptions configures Pretty.
type PrettyOptions struct {
	// MaxDepth limits container nesting; deeper non-empty containers render
	// as {...} or [...]. Zero means unlimited.
	MaxDepth int
	// Width is the line width containers are expanded to fit. Zero means DefaultWidth.
	Width int
	// IndentGuides draws a vertical guide in front of expanded container entries.
	IndentGuides bool
	// Guide styles indent guides. Nil leaves them plain.
	Guide func(string) string
}

// Pretty formats a schema node with Python literal syntax. Containers stay on one
// line when they fit the width and are expanded one entry per line otherwise.
func Pretty(v schema.Node, opts PrettyOptions) (string, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	p := &printer{opts: opts}
	root, err := p.build(v, "", 1)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	p.render(&b, root, 0, "")
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// pnode is a value laid out for printing. Leaves only carry text.
type pnode struct {
	key      string
	text     string
	open     string
	close    string
	children []*pnode
}

func (n *pnode) leaf() bool { return n.open == "" }

type printer struct {
	opts PrettyOptions
}

func (p *printer) build(v any, key string, depth int) (*pnode, error) {
	switch x := v.(type) {
	case nil:
		return &pnode{key: key, text: "None"}, nil
	case bool:
		if x {
			return &pnode{key: key, text: "True"}, nil
		}
		return &pnode{key: key, text: "False"}, nil
	case string:
		return &pnode{key: key, text: Repr(x)}, nil
	case int:
		return &pnode{key: key, text: strconv.Itoa(x)}, nil
	case int64:
		return &pnode{key: key, text: strconv.FormatInt(x, 10)}, nil
	case uint64:
		return &pnode{key: key, text: strconv.FormatUint(x, 10)}, nil
	case *big.Int:
		return &pnode{key: key, text: x.String()}, nil
	case float64:
		return &pnode{key: key, text: formatFloat(x)}, nil
	case time.Time:
		return &pnode{key: key, text: Repr(x.Format(time.RFC3339))}, nil

	case schema.Map:
		if len(x) == 0 {
			return &pnode{key: key, text: "{}"}, nil
		}
		if p.elided(depth) {
			return &pnode{key: key, text: "{...}"}, nil
		}
		n := &pnode{key: key, open: "{", close: "}"}
		for _, e := range x {
			child, err := p.build(e.Value, Repr(e.Key)+": ", depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", e.Key, err)
			}
			n.children = append(n.children, child)
		}
		return n, nil

	case map[string]any:
		return p.build(schema.FromGoMap(x), key, depth)

	case schema.Set:
		if len(x) == 0 {
			return &pnode{key: key, text: "set()"}, nil
		}
		if p.elided(depth) {
			return &pnode{key: key, text: "{...}"}, nil
		}
		return p.sequence(x, key, "{", "}", depth)

	case []any:
		if len(x) == 0 {
			return &pnode{key: key, text: "[]"}, nil
		}
		if p.elided(depth) {
			return &pnode{key: key, text: "[...]"}, nil
		}
		return p.sequence(x, key, "[", "]", depth)

	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return p.build(items, key, depth)

	default:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
			return nil, fmt.Errorf("cannot print value of type %T", v)
		}
		return &pnode{key: key, text: fmt.Sprint(v)}, nil
	}
}

func (p *printer) sequence(items []any, key, open, closing string, depth int) (*pnode, error) {
	n := &pnode{key: key, open: open, close: closing}
	for i, item := range items {
		child, err := p.build(item, "", depth+1)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func (p *printer) elided(depth int) bool {
	return p.opts.MaxDepth > 0 && depth > p.opts.MaxDepth
}

// inline returns n on a single line.
func inline(n *pnode) string {
	if n.leaf() {
		return n.key + n.text
	}
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		parts[i] = inline(c)
	}
	return n.key + n.open + strings.Join(parts, ", ") + n.close
}

func (p *printer) indent(level int) string {
	if !p.opts.IndentGuides {
		return strings.Repeat(" ", level*indentWidth)
	}
	guide := "│"
	if p.opts.Guide != nil {
		guide = p.opts.Guide(guide)
	}
	return strings.Repeat(guide+strings.Repeat(" ", indentWidth-1), level)
}

func (p *printer) render(b *strings.Builder, n *pnode, level int, suffix string) {
	line := inline(n)
	if n.leaf() || level*indentWidth+utf8.RuneCountInString(line)+len(suffix) <= p.opts.Width {
		b.WriteString(p.indent(level) + line + suffix + "\n")
		return
	}

	b.WriteString(p.indent(level) + n.key + n.open + "\n")
	for i, c := range n.children {
		sep := ","
		if i == len(n.children)-1 {
			sep = ""
		}
		p.render(b, c, level+1, sep)
	}
	b.WriteString(p.indent(level) + n.close + suffix + "\n")
}

// Repr quotes s the way Python's repr does for str values.
// Bytes that are not valid UTF-8 are escaped as \xNN.
func Repr(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				fmt.Fprintf(&b, `\x%02x`, s[i])
				continue
			}
		}
		switch {
		case r == quote || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// formatFloat follows Python's float repr.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
