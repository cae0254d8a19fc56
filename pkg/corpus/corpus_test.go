package corpus_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/hornbeam/pkg/corpus"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"examples/decl-before.rs":    {Data: []byte("fn a() {}")},
		"examples/decl-after.rs":     {Data: []byte("fn a();")},
		"examples/decl-js.js":        {Data: []byte("function a() {}")},
		"examples/fn-call-before.rs": {Data: []byte("fn f() { a(); }")},
		"examples/.hidden/x-y.rs":    {Data: []byte("garbage")},
	}

	c, err := corpus.Load(fsys, "examples")
	require.NoError(t, err)

	assert.Equal(t, []string{"decl", "fn-call"}, c.Labels())
	assert.Equal(t, []string{"after", "before", "js"}, c.Groups("decl"))

	ex, ok := c.Example("decl", "js")
	require.True(t, ok)
	assert.Equal(t, "javascript", ex.Language)
	assert.Equal(t, "function a() {}", ex.Text)

	ex, ok = c.Example("fn-call", "before")
	require.True(t, ok)
	assert.Equal(t, "rust", ex.Language)
}

func TestLoad_BadNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"noext", "nogroup.rs", "trailing-.rs", "-lead.rs"} {
		fsys := fstest.MapFS{name: {Data: []byte("fn a() {}")}}

		_, err := corpus.Load(fsys, ".")
		require.ErrorIs(t, err, corpus.ErrBadExampleName, name)
	}
}

func TestLoad_Duplicate(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a/x-before.rs": {Data: []byte("fn a() {}")},
		"b/x-before.rs": {Data: []byte("fn b() {}")},
	}

	_, err := corpus.Load(fsys, ".")
	require.ErrorIs(t, err, corpus.ErrDuplicateExample)
}

func TestPair_Program(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"decl-before.rs": {Data: []byte("fn a() {}")},
		"decl-js.js":     {Data: []byte("function a() {}")},
	}

	c, err := corpus.Load(fsys, ".")
	require.NoError(t, err)

	_, err = c.Pair("decl", "before", "after")
	require.ErrorIs(t, err, corpus.ErrMissingExample)

	pair, err := c.Pair("decl", "before", "js")
	require.NoError(t, err)

	prog, err := pair.Program(context.Background(), []string{"a"})
	require.NoError(t, err)

	got, ok, err := prog.Apply(context.Background(), "fn abcd() {}")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "function abcd() {}", got)
}
