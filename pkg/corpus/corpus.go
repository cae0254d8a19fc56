// Package corpus loads directories of example snippets named
// <label>-<group>.<ext>, where every label collects one snippet per group
// (for instance "before" and "after") and the extension picks the language.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
)

// Sentinel errors.
var (
	ErrBadExampleName   = errors.New("example file name is not <label>-<group>.<ext>")
	ErrDuplicateExample = errors.New("duplicate example")
	ErrMissingExample   = errors.New("missing example")
)

// Example is one snippet of the corpus.
type Example struct {
	Path     string
	Label    string
	Group    string
	Language string
	Text     string
}

// Corpus indexes examples by label, then group.
type Corpus struct {
	examples map[string]map[string]Example
}

// Load reads every regular file below root in fsys. Hidden files and
// directories are skipped.
func Load(fsys fs.FS, root string) (*Corpus, error) {
	c := &Corpus{examples: make(map[string]map[string]Example)}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		name := d.Name()
		if p != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		label, group, err := splitName(name)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		lang, err := syntax.DetectLanguage(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		return c.add(Example{Path: p, Label: label, Group: group, Language: lang, Text: string(data)})
	})
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	return c, nil
}

func splitName(name string) (label, group string, err error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	idx := strings.LastIndexByte(stem, '-')
	if ext == "" || idx <= 0 || idx == len(stem)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrBadExampleName, name)
	}

	return stem[:idx], stem[idx+1:], nil
}

func (c *Corpus) add(ex Example) error {
	groups, ok := c.examples[ex.Label]
	if !ok {
		groups = make(map[string]Example)
		c.examples[ex.Label] = groups
	}

	if prev, dup := groups[ex.Group]; dup {
		return fmt.Errorf("%w: %s and %s", ErrDuplicateExample, prev.Path, ex.Path)
	}

	groups[ex.Group] = ex

	return nil
}

// Labels returns the sorted example labels.
func (c *Corpus) Labels() []string {
	return slices.Sorted(maps.Keys(c.examples))
}

// Groups returns the sorted groups present for label.
func (c *Corpus) Groups(label string) []string {
	return slices.Sorted(maps.Keys(c.examples[label]))
}

// Example returns the snippet for label and group.
func (c *Corpus) Example(label, group string) (Example, bool) {
	ex, ok := c.examples[label][group]

	return ex, ok
}

// Pair is a before/after example ready to be compiled.
type Pair struct {
	Label string
	From  Example
	To    Example
}

// Pair selects the fromGroup and toGroup snippets of label.
func (c *Corpus) Pair(label, fromGroup, toGroup string) (Pair, error) {
	from, ok := c.Example(label, fromGroup)
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s-%s", ErrMissingExample, label, fromGroup)
	}

	to, ok := c.Example(label, toGroup)
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s-%s", ErrMissingExample, label, toGroup)
	}

	return Pair{Label: label, From: from, To: to}, nil
}

// Program compiles the pair into a one-rule program.
func (p Pair) Program(ctx context.Context, placeholders []string, opts ...transform.Option) (*transform.Program, error) {
	prog, err := transform.Parse(ctx, p.From.Language, p.To.Language, p.From.Text, p.To.Text, placeholders, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Label, err)
	}

	return prog, nil
}
