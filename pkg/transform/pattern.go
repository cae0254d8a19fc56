package transform

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

// Pattern is a compiled structural template. The variants are *NodePattern,
// TextLiteral, TextVar and NodeVar. Patterns are immutable once built.
type Pattern interface {
	fmt.Stringer
	isPattern()
}

// NodePattern matches a node of exactly Kind whose child sequence aligns with
// Children.
type NodePattern struct {
	Kind     syntax.Kind
	Children []Variadic
}

// TextLiteral matches a literal text span exactly and renders it verbatim.
type TextLiteral struct {
	Text string
}

// TextVar is a placeholder standing for a whole literal text span. Binding it
// is not supported; matching or rendering one is a contract violation.
type TextVar struct{}

// NodeVar captures the entire source text of the node it is matched against.
type NodeVar struct{}

// Variadic pairs a sub-pattern with its multiplicity.
type Variadic struct {
	Pattern Pattern
	Repeat  Repeat
}

// Single wraps p with RepeatSingle.
func Single(p Pattern) Variadic {
	return Variadic{Pattern: p, Repeat: RepeatSingle}
}

func (*NodePattern) isPattern() {}
func (TextLiteral) isPattern() {}
func (TextVar) isPattern() {}
func (NodeVar) isPattern() {}

func (p *NodePattern) String() string {
	var sb strings.Builder

	sb.WriteString("(")
	sb.WriteString(string(p.Kind))

	for _, child := range p.Children {
		sb.WriteString(" ")
		sb.WriteString(child.String())
	}

	sb.WriteString(")")

	return sb.String()
}

func (p TextLiteral) String() string { return fmt.Sprintf("%q", p.Text) }
func (TextVar) String() string { return "$text" }
func (NodeVar) String() string { return "$node" }

func (v Variadic) String() string {
	return v.Pattern.String() + v.Repeat.String()
}

// patternStats counts placeholder variants and non-single repeats in a pattern tree.
type patternStats struct {
	nodeVars  int
	textVars  int
	repeating int
}

func collectStats(p Pattern) patternStats {
	var stats patternStats

	var visit func(Pattern)
	visit = func(p Pattern) {
		switch p := p.(type) {
		case *NodePattern:
			for _, child := range p.Children {
				if child.Repeat != RepeatSingle {
					stats.repeating++
				}

				visit(child.Pattern)
			}
		case NodeVar:
			stats.nodeVars++
		case TextVar:
			stats.textVars++
		}
	}

	visit(p)

	return stats
}

// anchor peels wrapper nodes off a pattern: while a node pattern has exactly
// one structural child and every other child is whitespace, descend into
// that child. A bare NodeVar is never returned for a structural root, since
// it would match any node.
func anchor(p Pattern) Pattern {
	for {
		np, ok := p.(*NodePattern)
		if !ok {
			return p
		}

		inner, ok := soleStructuralChild(np)
		if !ok {
			return p
		}

		if _, isVar := inner.(NodeVar); isVar {
			return p
		}

		p = inner
	}
}

func soleStructuralChild(np *NodePattern) (Pattern, bool) {
	var inner Pattern

	for _, child := range np.Children {
		if child.Repeat != RepeatSingle {
			return nil, false
		}

		switch cp := child.Pattern.(type) {
		case TextLiteral:
			if strings.TrimSpace(cp.Text) != "" {
				return nil, false
			}
		case *NodePattern, NodeVar:
			if inner != nil {
				return nil, false
			}

			inner = cp
		default:
			return nil, false
		}
	}

	return inner, inner != nil
}
