package syntax

import (
	"fmt"
	"io"
	"strings"
)

const dumpIndent = "  "

// Dump writes an indented outline of the node: a Begin/End pair per named
// node and a quoted line per literal text span.
func Dump(w io.Writer, n Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) error {
	pad := strings.Repeat(dumpIndent, depth)

	_, err := fmt.Fprintf(w, "%sBegin %s\n", pad, n.Kind())
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	for _, child := range n.Children() {
		if child.IsNode() {
			err = dump(w, child.Node(), depth+1)
			if err != nil {
				return err
			}

			continue
		}

		_, err = fmt.Fprintf(w, "%s%sText %q\n", pad, dumpIndent, child.Text())
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}

	_, err = fmt.Fprintf(w, "%sEnd %s\n", pad, n.Kind())
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	return nil
}
