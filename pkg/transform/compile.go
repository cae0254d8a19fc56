package transform

import "github.com/Sumatoshi-tech/hornbeam/pkg/syntax"

// Compile converts an example node into a pattern. The smallest node whose
// text contains a placeholder while none of its named children do becomes a
// NodeVar; every other node keeps its kind and compiles its child sequence,
// turning text gaps into literals (or a TextVar when a gap is exactly a
// placeholder name).
func Compile(n syntax.Node, vars Placeholders) Pattern {
	if hasSingleVar(n, vars) {
		return NodeVar{}
	}

	children := n.Children()
	compiled := make([]Variadic, 0, len(children))

	for _, child := range children {
		var p Pattern

		switch {
		case child.IsNode():
			p = Compile(child.Node(), vars)
		case vars.Is(child.Text()):
			p = TextVar{}
		default:
			p = TextLiteral{Text: child.Text()}
		}

		compiled = append(compiled, Single(p))
	}

	return &NodePattern{Kind: n.Kind(), Children: compiled}
}

func hasSingleVar(n syntax.Node, vars Placeholders) bool {
	if !vars.In(n.Text()) {
		return false
	}

	for _, child := range n.Nodes() {
		if vars.In(child.Text()) {
			return false
		}
	}

	return true
}
