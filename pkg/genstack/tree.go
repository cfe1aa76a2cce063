package genstack

// NodeKind is the role of a tree node.
type NodeKind string

// Node kinds.
const (
	NodeBuildSchema NodeKind = "build_schema"
	NodeField       NodeKind = "field"
	NodeCreateModel NodeKind = "create_model"
	NodeParametrize NodeKind = "parametrize"
)

// Node is a labeled node of an annotation tree.
type Node struct {
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
	// Location is the source location of the class, when known.
	Location string `json:"location,omitempty"`
	// Field is the field name of a field node.
	Field string `json:"field,omitempty"`
	// Annotation is the declared type text of a field, when known.
	Annotation string  `json:"annotation,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// String returns the label followed by the location or field annotation.
func (n *Node) String() string {
	s := n.Label
	if n.Location != "" {
		s += " (" + n.Location + ")"
	}
	if n.Annotation != "" {
		s += ": " + n.Annotation
	}
	return s
}

func (n *Node) add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Tree is an annotation tree with a hidden root.
type Tree struct {
	Root *Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{Root: &Node{}}
}

// Empty reports whether the tree has no visible nodes.
func (t *Tree) Empty() bool {
	return t == nil || t.Root == nil || len(t.Root.Children) == 0
}

// Walk visits every visible node depth-first in call order.
// depth is 1 for the children of the hidden root.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	if t == nil || t.Root == nil {
		return
	}
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.Children {
			fn(c, depth)
			walk(c, depth+1)
		}
	}
	walk(t.Root, 1)
}
