package outline

// Outline is the builder output: the root forest plus a pre-order flat
// list. Both views share the same node objects; Flat gives list
// surfaces an indexable slice without re-walking the tree per
// keystroke.
type Outline struct {
	Roots []*Node
	Flat  []*Node
}

// Build links parents and flattens the forest in pre-order. Each node
// is appended to Flat when visited, then its direct children get their
// Parent set before the walk descends. Roots keep a nil Parent.
func Build(roots []*Node) *Outline {
	o := &Outline{Roots: roots}
	for _, root := range roots {
		root.Parent = nil
		o.visit(root)
	}
	return o
}

func (o *Outline) visit(node *Node) {
	o.Flat = append(o.Flat, node)
	for _, child := range node.Children {
		child.Parent = node
		o.visit(child)
	}
}

// Len returns the total node count across the forest.
func (o *Outline) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Flat)
}

// InnermostAt returns the last flat node whose range contains pos.
// Pre-order guarantees ancestors precede descendants, so the last hit
// is the innermost enclosing node. Nil when nothing covers pos.
func (o *Outline) InnermostAt(pos int) *Node {
	if o == nil {
		return nil
	}
	var found *Node
	for _, node := range o.Flat {
		if node.Contains(pos) {
			found = node
		}
	}
	return found
}
