package transform

import (
	"fmt"
	"strings"
)

// Render reconstructs text from an output pattern, substituting the bound
// capture wherever a NodeVar occurs. Literal gaps are reproduced verbatim.
func Render(p Pattern, b Binding) (string, error) {
	var sb strings.Builder

	err := render(&sb, p, b)
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

func render(sb *strings.Builder, p Pattern, b Binding) error {
	switch p := p.(type) {
	case *NodePattern:
		for _, child := range p.Children {
			if child.Repeat != RepeatSingle {
				return fmt.Errorf("%w: %q in %s", ErrUnsupportedRepeat, child.Repeat, p.Kind)
			}

			err := render(sb, child.Pattern, b)
			if err != nil {
				return err
			}
		}

		return nil
	case TextLiteral:
		sb.WriteString(p.Text)

		return nil
	case NodeVar:
		value, ok := b.Value()
		if !ok {
			return ErrUnboundPlaceholder
		}

		sb.WriteString(value)

		return nil
	case TextVar:
		return ErrTextVarUnsupported
	default:
		return fmt.Errorf("%w: %T", ErrUnknownPattern, p)
	}
}
