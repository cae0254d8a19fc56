// Package search locates nodes in a syntax tree, either by kind or by the
// shape of a node cut out of an example snippet.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/hornbeam/pkg/levenshtein"
	"github.com/Sumatoshi-tech/hornbeam/pkg/syntax"
)

// ContextMarker is replaced by the example inside a context snippet.
const ContextMarker = "@@"

// Sentinel errors.
var (
	ErrEmptyExample    = errors.New("example is empty")
	ErrExampleNotFound = errors.New("example text not found in parsed snippet")
	ErrMissingMarker   = errors.New("context has no " + ContextMarker + " marker")
	ErrUnknownKind     = errors.New("unknown node kind")
)

// Finder decides whether a node is a search hit.
type Finder interface {
	Matches(n syntax.Node) bool
}

type kindFinder struct {
	kind syntax.Kind
}

func (f kindFinder) Matches(n syntax.Node) bool {
	return n.Kind() == f.kind
}

// KindFinder matches every node of the given kind.
func KindFinder(kind syntax.Kind) Finder {
	return kindFinder{kind: kind}
}

// KindFinderFor resolves name in lang's kind table.
func KindFinderFor(lang *syntax.Language, name string) (Finder, error) {
	kind, ok := lang.KindFromName(name)
	if !ok {
		if guess, found := levenshtein.Closest(name, lang.KindNames()); found {
			return nil, fmt.Errorf("%w: %q in %s (did you mean %q?)", ErrUnknownKind, name, lang.Name, guess)
		}

		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownKind, name, lang.Name)
	}

	return KindFinder(kind), nil
}

// Schema is the kind tree of a node over named children only. Text gaps
// are ignored, so a schema matches any node of the same shape.
type Schema struct {
	Kind     syntax.Kind
	Children []Schema
}

// SchemaOf builds the schema of n.
func SchemaOf(n syntax.Node) Schema {
	nodes := n.Nodes()

	s := Schema{Kind: n.Kind(), Children: make([]Schema, 0, len(nodes))}
	for _, child := range nodes {
		s.Children = append(s.Children, SchemaOf(child))
	}

	return s
}

// Matches reports whether n has the same kind and named-child shape.
func (s Schema) Matches(n syntax.Node) bool {
	if n.Kind() != s.Kind {
		return false
	}

	nodes := n.Nodes()
	if len(nodes) != len(s.Children) {
		return false
	}

	for idx, child := range nodes {
		if !s.Children[idx].Matches(child) {
			return false
		}
	}

	return true
}

func (s Schema) String() string {
	if len(s.Children) == 0 {
		return string(s.Kind)
	}

	parts := make([]string, 0, len(s.Children))
	for _, child := range s.Children {
		parts = append(parts, child.String())
	}

	return "(" + string(s.Kind) + " " + strings.Join(parts, " ") + ")"
}

// SchemaFinder matches nodes with the shape of schema.
func SchemaFinder(schema Schema) Finder {
	return schema
}

// FindExample returns the deepest node on the first path whose text
// contains example, or false when root does not contain it at all.
func FindExample(root syntax.Node, example string) (syntax.Node, bool) {
	if !strings.Contains(root.Text(), example) {
		return syntax.Node{}, false
	}

	for _, child := range root.Nodes() {
		if found, ok := FindExample(child, example); ok {
			return found, true
		}
	}

	return root, true
}

// ExampleSchema parses example, optionally embedded in context at the
// ContextMarker, and returns the schema of the node holding the example.
// The context lets fragments that do not parse alone (an expression, a
// field) be located inside a complete snippet.
func ExampleSchema(ctx context.Context, parser *syntax.Parser, example, snippet string) (Schema, error) {
	if example == "" {
		return Schema{}, ErrEmptyExample
	}

	full := example

	if snippet != "" {
		if !strings.Contains(snippet, ContextMarker) {
			return Schema{}, ErrMissingMarker
		}

		full = strings.ReplaceAll(snippet, ContextMarker, example)
	}

	tree, err := parser.Parse(ctx, []byte(full))
	if err != nil {
		return Schema{}, fmt.Errorf("parse example: %w", err)
	}
	defer tree.Close()

	n, ok := FindExample(tree.Root(), example)
	if !ok {
		return Schema{}, ErrExampleNotFound
	}

	return SchemaOf(n), nil
}

// Find returns the text of every node of tree accepted by finder, in
// pre-order.
func Find(tree *syntax.Tree, finder Finder) []string {
	var hits []string

	for n := range tree.Walk() {
		if finder.Matches(n) {
			hits = append(hits, n.Text())
		}
	}

	return hits
}
