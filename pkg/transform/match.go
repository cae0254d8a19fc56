package transform

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

// Match checks p against n starting from binding b. On success it returns
// the binding extended with any capture. A structural mismatch anywhere
// yields ErrNoMatch; contract violations wrap ErrContract.
func Match(p Pattern, n syntax.Node, b Binding) (Binding, error) {
	switch p := p.(type) {
	case NodeVar:
		nb, err := b.bind(n.Text())
		if err != nil {
			return b, fmt.Errorf("%w (at %s)", err, n.Kind())
		}

		return nb, nil
	case *NodePattern:
		if n.Kind() != p.Kind {
			return b, ErrNoMatch
		}

		return matchSequence(p.Children, n.Children(), b)
	case TextLiteral:
		if n.Text() != p.Text {
			return b, ErrNoMatch
		}

		return b, nil
	case TextVar:
		return b, ErrTextVarUnsupported
	default:
		return b, fmt.Errorf("%w: %T", ErrUnknownPattern, p)
	}
}

// matchSequence aligns sub-patterns with a child sequence. Single patterns
// consume exactly one child; the other repeats consume greedily and give
// children back one at a time when the remainder fails. Both sequences must
// be exhausted together.
func matchSequence(patterns []Variadic, children []syntax.Child, b Binding) (Binding, error) {
	if len(patterns) == 0 {
		if len(children) == 0 {
			return b, nil
		}

		return b, ErrNoMatch
	}

	head, rest := patterns[0], patterns[1:]

	lo, hi, ok := head.Repeat.bounds(len(children))
	if !ok {
		return b, fmt.Errorf("%w: %d", ErrUnsupportedRepeat, head.Repeat)
	}

	// states[k] is the binding after head consumed k children.
	states := []Binding{b}

	for k := 0; k < hi && k < len(children); k++ {
		nb, err := matchChild(head.Pattern, children[k], states[k])
		if errors.Is(err, ErrNoMatch) {
			break
		}

		if err != nil {
			return b, err
		}

		states = append(states, nb)
	}

	for k := len(states) - 1; k >= lo; k-- {
		nb, err := matchSequence(rest, children[k:], states[k])
		if !errors.Is(err, ErrNoMatch) {
			return nb, err
		}
	}

	return b, ErrNoMatch
}

// matchChild checks one sub-pattern against one child. Node children are
// checked with Match, except against a TextVar; text children only pair with
// text patterns.
func matchChild(p Pattern, child syntax.Child, b Binding) (Binding, error) {
	if child.IsNode() {
		if _, ok := p.(TextVar); ok {
			return b, ErrNoMatch
		}

		return Match(p, child.Node(), b)
	}

	switch p := p.(type) {
	case TextLiteral:
		if child.Text() != p.Text {
			return b, ErrNoMatch
		}

		return b, nil
	case TextVar:
		return b, ErrTextVarUnsupported
	default:
		return b, ErrNoMatch
	}
}
