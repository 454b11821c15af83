package outline

import "fmt"

// Node is one container or leaf in the structural outline of a spec
// file. The JSON field names match the wire schema emitted by the
// structural parser.
type Node struct {
	Name     string  `json:"name"`
	Text     string  `json:"text"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Leaf     bool    `json:"spec"`
	Focused  bool    `json:"focused"`
	Pending  bool    `json:"pending"`
	Children []*Node `json:"nodes"`

	// Parent is a non-owning back-reference set by Build, never by the
	// parser. Nil for roots.
	Parent *Node `json:"-"`
}

// NodeKey identifies a node by its source range. Node objects are
// rebuilt wholesale on every fetch, so click tracking keys on position
// rather than pointer identity.
type NodeKey struct {
	Start int
	End   int
}

// Key returns the positional identity of the node.
func (n *Node) Key() NodeKey {
	return NodeKey{Start: n.Start, End: n.End}
}

// Contains reports whether the node's source range covers pos.
func (n *Node) Contains(pos int) bool {
	return n.Start <= pos && pos <= n.End
}

// Label renders the node for list and tree surfaces.
func (n *Node) Label() string {
	if n.Text == "" {
		return n.Name
	}
	return fmt.Sprintf("%s %s", n.Name, n.Text)
}

// Icon picks a glyph for the node category.
func (n *Node) Icon() string {
	switch {
	case n.Pending:
		return "○"
	case n.Focused:
		return "◉"
	case n.Leaf:
		return "▸"
	default:
		return "▾"
	}
}

// Tooltip summarizes every node attribute for hover surfaces.
func (n *Node) Tooltip() string {
	return fmt.Sprintf("%s %q [%d-%d] leaf=%t focused=%t pending=%t",
		n.Name, n.Text, n.Start, n.End, n.Leaf, n.Focused, n.Pending)
}
