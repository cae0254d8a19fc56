package syntax

import (
	"context"
	"errors"
	"fmt"
	"iter"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parsing.
var (
	ErrSyntax     = errors.New("source does not parse")
	ErrNoRootNode = errors.New("parser produced no root node")
	errPoolType   = errors.New("parser pool returned unexpected type")
)

// Parser parses source text under one language. A Parser is safe for
// concurrent use: every Parse call borrows its own tree-sitter parser from
// the language's pool.
type Parser struct {
	lang    *Language
	lenient bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// Lenient makes Parse return trees that contain ERROR or MISSING nodes
// instead of failing with ErrSyntax.
func Lenient() ParserOption {
	return func(p *Parser) {
		p.lenient = true
	}
}

// NewParser creates a parser for the given language.
func NewParser(lang *Language, opts ...ParserOption) *Parser {
	p := &Parser{lang: lang}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewParserFor resolves the named language and creates a parser for it.
func NewParserFor(name string, opts ...ParserOption) (*Parser, error) {
	lang, err := LookupLanguage(name)
	if err != nil {
		return nil, err
	}

	return NewParser(lang, opts...), nil
}

// Language returns the language the parser was created for.
func (p *Parser) Language() *Language {
	return p.lang
}

// Parse parses src. The caller must Close the returned tree.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Tree, error) {
	tsParser, ok := p.lang.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.lang.pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.lang.Name, err)
	}

	tree := &Tree{ts: tsTree, src: src, lang: p.lang}

	root := tree.Root()
	if root.ts.IsNull() {
		tree.Close()

		return nil, fmt.Errorf("%s: %w", p.lang.Name, ErrNoRootNode)
	}

	if !p.lenient && root.HasError() {
		tree.Close()

		return nil, fmt.Errorf("%w as %s", ErrSyntax, p.lang.Name)
	}

	return tree, nil
}

// Tree is a parsed source text.
type Tree struct {
	ts   *sitter.Tree
	src  []byte
	lang *Language
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return Node{ts: t.ts.RootNode(), src: t.src}
}

// Walk iterates every named node of the tree in pre-order.
func (t *Tree) Walk() iter.Seq[Node] {
	return t.Root().Walk()
}

// Source returns the text the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.src
}

// Language returns the language the tree was parsed under.
func (t *Tree) Language() *Language {
	return t.lang
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.ts != nil {
		t.ts.Close()
		t.ts = nil
	}
}
