package ruleset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/hornbeam/pkg/ruleset"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

const rulesYAML = `rules:
  - name: declare
    from_lang: rust
    to_lang: rust
    before: "fn a() {}"
    after: "fn a();"
    placeholders: [a]
  - name: to-js
    description: port declarations
    from_lang: rust
    to_lang: javascript
    before: "fn a(x: i32) {}"
    after: "function a(x) {}"
    placeholders: [a]
    placeholder_mode: identifier
`

func compile(t *testing.T, doc string) *ruleset.Set {
	t.Helper()

	f, err := ruleset.Parse([]byte(doc))
	require.NoError(t, err)

	set, err := f.Compile(context.Background())
	require.NoError(t, err)

	return set
}

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := ruleset.Parse([]byte(rulesYAML))
	require.NoError(t, err)
	require.Len(t, f.Rules, 2)

	assert.Equal(t, "declare", f.Rules[0].Name)
	assert.Equal(t, []string{"a"}, f.Rules[0].Placeholders)
	assert.Equal(t, "javascript", f.Rules[1].ToLang)
	assert.Equal(t, "identifier", f.Rules[1].PlaceholderMode)
}

func TestParse_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "(root)"},
		{"no_rules", `rules: []`, "rules"},
		{"missing_after", "rules:\n  - {name: x, from_lang: rust, to_lang: rust, before: b}", "after"},
		{"unknown_field", "rules:\n  - {name: x, from_lang: rust, to_lang: rust, before: b, after: c, extra: 1}", "extra"},
		{"bad_mode", "rules:\n  - {name: x, from_lang: rust, to_lang: rust, before: b, after: c, placeholder_mode: regex}", "placeholder_mode"},
		{"not_yaml", "rules: [", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ruleset.Parse([]byte(tt.doc))
			require.ErrorIs(t, err, ruleset.ErrInvalidRuleFile)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_DuplicateName(t *testing.T) {
	t.Parallel()

	doc := "rules:\n" +
		"  - {name: x, from_lang: rust, to_lang: rust, before: b, after: c}\n" +
		"  - {name: x, from_lang: rust, to_lang: rust, before: b, after: c}\n"

	_, err := ruleset.Parse([]byte(doc))
	require.ErrorIs(t, err, ruleset.ErrDuplicateRule)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0o600))

	f, err := ruleset.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Rules, 2)

	_, err = ruleset.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSet_Apply(t *testing.T) {
	t.Parallel()

	set := compile(t, rulesYAML)
	ctx := context.Background()

	assert.Equal(t, []string{"declare", "to-js"}, set.Names())

	out, rule, ok, err := set.Apply(ctx, "fn abcd() {}")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "declare", rule)
	assert.Equal(t, "fn abcd();", out)

	out, rule, ok, err = set.Apply(ctx, "fn abcd(x: i32) {}")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "to-js", rule)
	assert.Equal(t, "function abcd(x) {}", out)

	_, _, ok, err = set.Apply(ctx, "struct S {}")
	require.NoError(t, err)
	assert.False(t, ok)

	prog, ok := set.Program("to-js")
	require.True(t, ok)
	assert.Equal(t, "javascript", prog.To().Name)
}

const mixedYAML = `rules:
  - name: rs
    from_lang: rust
    to_lang: rust
    before: "fn a() {}"
    after: "fn a();"
    placeholders: [a]
  - name: py
    from_lang: python
    to_lang: python
    before: "def name(): pass"
    after: "def name(): return None"
    placeholders: [name]
    placeholder_mode: identifier
`

func TestSet_Apply_MixedLanguages(t *testing.T) {
	t.Parallel()

	set := compile(t, mixedYAML)
	ctx := context.Background()

	out, rule, ok, err := set.Apply(ctx, "def abcd(): pass")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "py", rule)
	assert.Equal(t, "def abcd(): return None", out)

	out, rule, ok, err = set.Apply(ctx, "fn abcd() {}")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rs", rule)
	assert.Equal(t, "fn abcd();", out)

	_, _, ok, err = set.Apply(ctx, "fn abcd( {")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSet_RewriteAll_CrossLanguageChain(t *testing.T) {
	t.Parallel()

	doc := `rules:
  - name: port
    from_lang: rust
    to_lang: python
    before: "fn name() {}"
    after: "def name(): pass"
    placeholders: [name]
    placeholder_mode: identifier
  - name: explicit
    from_lang: python
    to_lang: python
    before: "def name(): pass"
    after: "def name(): return None"
    placeholders: [name]
    placeholder_mode: identifier
`

	set := compile(t, doc)

	out, counts, err := set.RewriteAll(context.Background(), "fn x() {}")
	require.NoError(t, err)
	assert.Equal(t, "def x(): return None", out)
	assert.Equal(t, []ruleset.Count{{Rule: "port", Replacements: 1}, {Rule: "explicit", Replacements: 1}}, counts)
}

func TestSet_RewriteAll(t *testing.T) {
	t.Parallel()

	doc := `rules:
  - name: declare
    from_lang: rust
    to_lang: rust
    before: "fn a() {}"
    after: "fn a();"
    placeholders: [a]
  - name: unit
    from_lang: rust
    to_lang: rust
    before: "fn a();"
    after: "fn a() -> ();"
    placeholders: [a]
`

	set := compile(t, doc)

	out, counts, err := set.RewriteAll(context.Background(), "fn x() {}\nfn y(v: u8) {}\n")
	require.NoError(t, err)
	assert.Equal(t, "fn x() -> ();\nfn y(v: u8) {}\n", out)
	assert.Equal(t, []ruleset.Count{{Rule: "declare", Replacements: 1}, {Rule: "unit", Replacements: 1}}, counts)
}

func TestCompile_ContractViolation(t *testing.T) {
	t.Parallel()

	doc := `rules:
  - name: twice
    from_lang: rust
    to_lang: rust
    before: "fn a() { a(); }"
    after: "fn a();"
    placeholders: [a]
`

	f, err := ruleset.Parse([]byte(doc))
	require.NoError(t, err)

	_, err = f.Compile(context.Background())
	require.ErrorIs(t, err, transform.ErrAmbiguousPlaceholder)
	assert.Contains(t, err.Error(), "twice")
}
