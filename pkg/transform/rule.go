package transform

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

// Rule pairs an input pattern with an output pattern.
type Rule struct {
	pattern Pattern
	output  Pattern

	// Anchored forms with wrapper nodes (e.g. source_file) peeled off, used
	// when rewriting nested occurrences inside a larger tree.
	anchoredPattern Pattern
	anchoredOutput  Pattern
}

// NewRule validates a pattern pair. The input side may hold at most one
// NodeVar; the output side may only use a NodeVar when the input captures
// one; TextVars and non-single repeats on the output side are rejected.
func NewRule(pattern, output Pattern) (*Rule, error) {
	in := collectStats(pattern)
	out := collectStats(output)

	switch {
	case in.nodeVars > 1:
		return nil, fmt.Errorf("%w: %d captures in input pattern", ErrAmbiguousPlaceholder, in.nodeVars)
	case in.textVars > 0 || out.textVars > 0:
		return nil, ErrTextVarUnsupported
	case out.nodeVars > 0 && in.nodeVars == 0:
		return nil, fmt.Errorf("%w: input pattern captures nothing", ErrUnboundPlaceholder)
	case out.repeating > 0:
		return nil, fmt.Errorf("%w: in output pattern", ErrUnsupportedRepeat)
	}

	return &Rule{
		pattern:         pattern,
		output:          output,
		anchoredPattern: anchor(pattern),
		anchoredOutput:  anchor(output),
	}, nil
}

// CompileRule compiles both example nodes with the same placeholder set.
func CompileRule(from, to syntax.Node, vars Placeholders) (*Rule, error) {
	return NewRule(Compile(from, vars), Compile(to, vars))
}

// Pattern returns the input pattern.
func (r *Rule) Pattern() Pattern {
	return r.pattern
}

// Output returns the output pattern.
func (r *Rule) Output() Pattern {
	return r.output
}

// Check matches the rule against n with a fresh binding and renders the
// output on success. A mismatch is reported as ok == false with a nil error.
func (r *Rule) Check(n syntax.Node) (string, bool, error) {
	return check(r.pattern, r.output, n)
}

// CheckAnchored is Check using the anchored patterns.
func (r *Rule) CheckAnchored(n syntax.Node) (string, bool, error) {
	return check(r.anchoredPattern, r.anchoredOutput, n)
}

func check(pattern, output Pattern, n syntax.Node) (string, bool, error) {
	b, err := Match(pattern, n, Binding{})
	if errors.Is(err, ErrNoMatch) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	text, err := Render(output, b)
	if err != nil {
		return "", false, err
	}

	return text, true, nil
}

func (r *Rule) String() string {
	return r.pattern.String() + " => " + r.output.String()
}
