// Package ruleset reads named example rules from YAML files and compiles
// them into programs that run in file order.
package ruleset

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

//go:embed schema.json
var schemaJSON []byte

// Sentinel errors.
var (
	ErrInvalidRuleFile = errors.New("invalid rule file")
	ErrDuplicateRule   = errors.New("duplicate rule name")
)

// Rule is one before/after example pair.
type Rule struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description,omitempty"`
	FromLang        string   `yaml:"from_lang"`
	ToLang          string   `yaml:"to_lang"`
	Before          string   `yaml:"before"`
	After           string   `yaml:"after"`
	Placeholders    []string `yaml:"placeholders,omitempty"`
	PlaceholderMode string   `yaml:"placeholder_mode,omitempty"`
}

// File is the top-level document of a rule file.
type File struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads and validates the rule file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse validates data against the rule file schema and decodes it.
func Parse(data []byte) (*File, error) {
	var raw any

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleFile, err)
	}

	err = validate(raw)
	if err != nil {
		return nil, err
	}

	var f File

	err = yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleFile, err)
	}

	seen := make(map[string]bool, len(f.Rules))

	for _, r := range f.Rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
		}

		seen[r.Name] = true
	}

	return &f, nil
}

func validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRuleFile, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.Field()+": "+re.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRuleFile, strings.Join(problems, "; "))
}

// Compile builds one program per rule. Options apply to every program; a
// rule's placeholder_mode overrides the mode among them.
func (f *File) Compile(ctx context.Context, opts ...transform.Option) (*Set, error) {
	set := &Set{logger: slog.Default()}

	for _, r := range f.Rules {
		ruleOpts := opts

		if r.PlaceholderMode != "" {
			mode, err := transform.ParsePlaceholderMode(r.PlaceholderMode)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}

			ruleOpts = append(slices.Clip(opts), transform.WithPlaceholderMode(mode))
		}

		prog, err := transform.Parse(ctx, r.FromLang, r.ToLang, r.Before, r.After, r.Placeholders, ruleOpts...)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}

		set.entries = append(set.entries, entry{name: r.Name, prog: prog})
	}

	return set, nil
}

type entry struct {
	name string
	prog *transform.Program
}

// Set is a compiled rule file.
type Set struct {
	entries []entry
	logger  *slog.Logger
}

// WithLogger returns a copy of s that logs through logger.
func (s *Set) WithLogger(logger *slog.Logger) *Set {
	cp := *s
	cp.logger = logger

	return &cp
}

// Names returns the rule names in evaluation order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.name)
	}

	return names
}

// Program returns the compiled program of the named rule.
func (s *Set) Program(name string) (*transform.Program, bool) {
	for _, e := range s.entries {
		if e.name == name {
			return e.prog, true
		}
	}

	return nil, false
}

// Apply runs each rule against the whole of text and returns the output of
// the first one that matches together with its name. A rule whose source
// language cannot parse text does not match; other errors stop the scan.
func (s *Set) Apply(ctx context.Context, text string) (out, rule string, ok bool, err error) {
	for _, e := range s.entries {
		out, ok, err = e.prog.Apply(ctx, text)
		if errors.Is(err, syntax.ErrSyntax) {
			s.logger.DebugContext(ctx, "rule skipped",
				slog.String("rule", e.name),
				slog.String("from", e.prog.From().Name),
			)

			continue
		}

		if err != nil {
			return "", "", false, fmt.Errorf("rule %q: %w", e.name, err)
		}

		if ok {
			s.logger.DebugContext(ctx, "rule applied", slog.String("rule", e.name))

			return out, e.name, true, nil
		}
	}

	return "", "", false, nil
}

// Count is the number of replacements one rule made.
type Count struct {
	Rule         string
	Replacements int
}

// RewriteAll feeds text through every rule in order, each rewriting all
// occurrences in the output of the previous one.
func (s *Set) RewriteAll(ctx context.Context, text string) (string, []Count, error) {
	counts := make([]Count, 0, len(s.entries))

	for _, e := range s.entries {
		out, n, err := e.prog.RewriteAll(ctx, text)
		if err != nil {
			return "", nil, fmt.Errorf("rule %q: %w", e.name, err)
		}

		s.logger.DebugContext(ctx, "rule rewrote",
			slog.String("rule", e.name),
			slog.Int("replacements", n),
		)

		counts = append(counts, Count{Rule: e.name, Replacements: n})
		text = out
	}

	return text, counts, nil
}
