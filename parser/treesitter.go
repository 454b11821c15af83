package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/lexcodex/specnav/outline"
)

// TreeSitterParser is the embedded fallback for environments without
// the external parser command. It extracts describe/it call trees from
// JavaScript or TypeScript spec sources using the tree-sitter grammar
// and emits the same node records the external parser would.
type TreeSitterParser struct{}

// containerNames and specNames hold the base call names the extractor
// recognizes, before f/x prefixes and .only/.skip modifiers.
var (
	containerNames = map[string]bool{"describe": true, "context": true}
	specNames      = map[string]bool{"it": true, "specify": true, "test": true}
)

// Parse builds the outline forest for source. It reports
// ErrFrameworkNotDetected when no recognized call appears anywhere in
// the file.
func (p *TreeSitterParser) Parse(ctx context.Context, source string) ([]*outline.Node, error) {
	ts := sitter.NewParser()
	ts.SetLanguage(javascript.GetLanguage())
	tree, err := ts.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	roots := collectCalls(tree.RootNode(), []byte(source))
	if len(roots) == 0 {
		return nil, ErrFrameworkNotDetected
	}
	return roots, nil
}

// Func adapts the parser to the injectable fetch signature.
func (p *TreeSitterParser) Func() Func {
	return p.Parse
}

// collectCalls walks the syntax tree and lifts recognized spec calls
// into outline nodes. Unrecognized syntax is descended through, so a
// describe nested inside a loop or helper still surfaces under its
// nearest recognized ancestor.
func collectCalls(node *sitter.Node, src []byte) []*outline.Node {
	var out []*outline.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if spec := specCall(child, src); spec != nil {
			out = append(out, spec)
			continue
		}
		out = append(out, collectCalls(child, src)...)
	}
	return out
}

func specCall(node *sitter.Node, src []byte) *outline.Node {
	if node.Type() != "call_expression" {
		return nil
	}
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	name, focused, pending, ok := callName(fn, src)
	if !ok {
		return nil
	}

	n := &outline.Node{
		Name:    name,
		Start:   int(node.StartByte()),
		End:     int(node.EndByte()),
		Leaf:    isSpecName(name),
		Focused: focused,
		Pending: pending,
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		n.Text = firstStringArg(args, src)
		n.Children = collectCalls(args, src)
	}
	return n
}

// callName resolves the callee to a recognized spec-framework name.
// Jasmine prefixes map f -> focused and x -> pending; mocha-style
// .only and .skip members do the same.
func callName(fn *sitter.Node, src []byte) (name string, focused, pending, ok bool) {
	switch fn.Type() {
	case "identifier":
		name = fn.Content(src)
	case "member_expression":
		object := fn.ChildByFieldName("object")
		property := fn.ChildByFieldName("property")
		if object == nil || property == nil || object.Type() != "identifier" {
			return "", false, false, false
		}
		name = object.Content(src)
		switch property.Content(src) {
		case "only":
			focused = true
		case "skip":
			pending = true
		default:
			return "", false, false, false
		}
	default:
		return "", false, false, false
	}

	base := name
	switch {
	case strings.HasPrefix(name, "f") && recognized(name[1:]):
		base = name[1:]
		focused = true
	case strings.HasPrefix(name, "x") && recognized(name[1:]):
		base = name[1:]
		pending = true
	}
	if !recognized(base) {
		return "", false, false, false
	}
	return name, focused, pending, true
}

func recognized(name string) bool {
	return containerNames[name] || specNames[name]
}

func isSpecName(name string) bool {
	base := strings.TrimPrefix(strings.TrimPrefix(name, "f"), "x")
	if specNames[name] {
		return true
	}
	return specNames[base]
}

// firstStringArg returns the unquoted text of the first string or
// template literal in an arguments list.
func firstStringArg(args *sitter.Node, src []byte) string {
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "string" && arg.Type() != "template_string" {
			continue
		}
		text := arg.Content(src)
		return strings.Trim(text, "'\"`")
	}
	return ""
}
