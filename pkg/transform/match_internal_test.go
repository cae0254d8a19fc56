package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

func texts(parts ...string) []syntax.Child {
	children := make([]syntax.Child, 0, len(parts))
	for _, p := range parts {
		children = append(children, syntax.TextChild(p))
	}

	return children
}

func lit(text string, r Repeat) Variadic {
	return Variadic{Pattern: TextLiteral{Text: text}, Repeat: r}
}

func TestMatchSequence_Repeats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []Variadic
		children []syntax.Child
		matched  bool
	}{
		{"single_exact", []Variadic{lit("x", RepeatSingle)}, texts("x"), true},
		{"single_surplus", []Variadic{lit("x", RepeatSingle)}, texts("x", "x"), false},
		{"single_missing", []Variadic{lit("x", RepeatSingle), lit("y", RepeatSingle)}, texts("x"), false},
		{"optional_absent", []Variadic{lit("x", RepeatOptional), lit("y", RepeatSingle)}, texts("y"), true},
		{"optional_present", []Variadic{lit("x", RepeatOptional), lit("y", RepeatSingle)}, texts("x", "y"), true},
		{"optional_twice", []Variadic{lit("x", RepeatOptional), lit("y", RepeatSingle)}, texts("x", "x", "y"), false},
		{"at_least_one_zero", []Variadic{lit("x", RepeatAtLeastOne), lit("y", RepeatSingle)}, texts("y"), false},
		{"at_least_one_many", []Variadic{lit("x", RepeatAtLeastOne), lit("y", RepeatSingle)}, texts("x", "x", "x", "y"), true},
		{"many_empty", []Variadic{lit("x", RepeatMany)}, nil, true},
		{"many_backtracks", []Variadic{lit("x", RepeatMany), lit("x", RepeatSingle)}, texts("x", "x", "x"), true},
		{"many_then_many", []Variadic{lit("x", RepeatMany), lit("x", RepeatAtLeastOne)}, texts("x"), true},
		{"many_leftover", []Variadic{lit("x", RepeatMany)}, texts("x", "z"), false},
		{"empty_pattern_empty_children", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := matchSequence(tt.patterns, tt.children, Binding{})
			if tt.matched {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrNoMatch)
			}
		})
	}
}

func TestMatchSequence_UnknownRepeat(t *testing.T) {
	t.Parallel()

	_, err := matchSequence([]Variadic{lit("x", Repeat(42))}, texts("x"), Binding{})
	require.ErrorIs(t, err, ErrUnsupportedRepeat)
	assert.True(t, IsContractViolation(err))
}

func TestMatchChild_ShapeRules(t *testing.T) {
	t.Parallel()

	_, err := matchChild(NodeVar{}, syntax.TextChild("a"), Binding{})
	require.ErrorIs(t, err, ErrNoMatch)

	_, err = matchChild(TextVar{}, syntax.TextChild("a"), Binding{})
	require.ErrorIs(t, err, ErrTextVarUnsupported)
}

func TestMatchChild_LiteralAgainstNode(t *testing.T) {
	t.Parallel()

	parser, err := syntax.NewParserFor("rust")
	require.NoError(t, err)

	tree, err := parser.Parse(context.Background(), []byte("fn abcd() {}"))
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	nodes := tree.Root().Nodes()
	require.Len(t, nodes, 1)

	child := syntax.NodeChild(nodes[0])

	_, err = matchChild(TextLiteral{Text: "fn abcd() {}"}, child, Binding{})
	require.NoError(t, err)

	_, err = matchChild(TextLiteral{Text: "fn efgh() {}"}, child, Binding{})
	require.ErrorIs(t, err, ErrNoMatch)

	_, err = matchChild(TextVar{}, child, Binding{})
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestBinding_BindOnce(t *testing.T) {
	t.Parallel()

	var b Binding

	_, ok := b.Value()
	assert.False(t, ok)

	b, err := b.bind("abcd")
	require.NoError(t, err)

	value, ok := b.Value()
	assert.True(t, ok)
	assert.Equal(t, "abcd", value)

	again, err := b.bind("efgh")
	require.ErrorIs(t, err, ErrAlreadyBound)

	value, _ = again.Value()
	assert.Equal(t, "abcd", value)
}

func TestAnchor(t *testing.T) {
	t.Parallel()

	fn := &NodePattern{Kind: "function_item", Children: []Variadic{
		Single(TextLiteral{Text: "fn "}),
		Single(NodeVar{}),
	}}

	wrapped := &NodePattern{Kind: "source_file", Children: []Variadic{
		Single(fn),
		Single(TextLiteral{Text: "\n"}),
	}}

	assert.Same(t, fn, anchor(wrapped))

	bare := &NodePattern{Kind: "source_file", Children: []Variadic{Single(NodeVar{})}}
	assert.Same(t, bare, anchor(bare))

	mixed := &NodePattern{Kind: "source_file", Children: []Variadic{
		Single(fn),
		Single(TextLiteral{Text: ";"}),
	}}
	assert.Same(t, mixed, anchor(mixed))
}
