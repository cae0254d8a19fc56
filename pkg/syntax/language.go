// Package syntax is a read-only concrete syntax tree view over tree-sitter
// grammars: named nodes with a kind, interleaved child/text sequences and the
// exact source slice of every node.
package syntax

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// Sentinel errors for language resolution.
var (
	ErrUnknownLanguage    = errors.New("unknown language")
	ErrUndetectedLanguage = errors.New("cannot detect language")
)

// extensionGrammars maps well-known file extensions to grammar names. It is
// consulted before enry because several extensions (".rs", ".ts") are
// ambiguous in linguist's table.
var extensionGrammars = map[string]string{
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "c_sharp",
	".go":    "go",
	".java":  "java",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "tsx",
	".py":    "python",
	".rb":    "ruby",
	".rs":    "rust",
	".php":   "php",
	".lua":   "lua",
	".sh":    "bash",
	".bash":  "bash",
	".kt":    "kotlin",
	".scala": "scala",
	".swift": "swift",
	".hs":    "haskell",
	".ml":    "ocaml",
	".jl":    "julia",
	".css":   "css",
	".html":  "html",
	".zig":   "zig",
}

// linguistGrammars maps enry (linguist) language names to grammar names
// where lower-casing alone is not enough.
var linguistGrammars = map[string]string{
	"C#":          "c_sharp",
	"C++":         "cpp",
	"Shell":       "bash",
	"TSX":         "tsx",
	"Common Lisp": "commonlisp",
}

// Language is a resolved tree-sitter grammar.
type Language struct {
	Name       string
	Extensions []string

	ts    *sitter.Language
	pool  sync.Pool
	kinds map[string]Kind
	once  sync.Once
}

var languageCache sync.Map

// LookupLanguage resolves a grammar by name. Results are cached, so every
// caller asking for the same name shares one Language and its parser pool.
func LookupLanguage(name string) (*Language, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*Language)
		if castOK {
			return lang, nil
		}
	}

	var ts *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		ts = forest.GetLanguage(name)
	}()

	if ts == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}

	lang := &Language{
		Name:       name,
		Extensions: extensionsFor(name),
		ts:         ts,
	}
	lang.pool.New = func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(ts)

		return tsParser
	}

	actual, _ := languageCache.LoadOrStore(name, lang)

	resolved, ok := actual.(*Language)
	if !ok {
		return lang, nil
	}

	return resolved, nil
}

// DetectLanguage infers the grammar name for a file from its extension,
// falling back to enry's classifier over the content.
func DetectLanguage(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if name, ok := extensionGrammars[ext]; ok {
		return name, nil
	}

	detected := enry.GetLanguage(filepath.Base(filename), content)
	if detected == "" {
		return "", fmt.Errorf("%w: %s", ErrUndetectedLanguage, filename)
	}

	if name, ok := linguistGrammars[detected]; ok {
		return name, nil
	}

	return strings.ReplaceAll(strings.ToLower(detected), " ", "_"), nil
}

func extensionsFor(name string) []string {
	var exts []string

	for ext, grammar := range extensionGrammars {
		if grammar == name {
			exts = append(exts, ext)
		}
	}

	sort.Strings(exts)

	return exts
}

// KindNames returns the sorted names of every named node kind in the grammar.
func (lang *Language) KindNames() []string {
	lang.loadKinds()

	names := make([]string, 0, len(lang.kinds))
	for name := range lang.kinds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// KindFromName looks up a named kind by its grammar name.
func (lang *Language) KindFromName(name string) (Kind, bool) {
	lang.loadKinds()

	kind, ok := lang.kinds[name]

	return kind, ok
}

func (lang *Language) loadKinds() {
	lang.once.Do(func() {
		lang.kinds = make(map[string]Kind)

		for idx := range lang.ts.SymbolCount() {
			sym := sitter.Symbol(idx)
			if lang.ts.SymbolType(sym) != sitter.SymbolTypeRegular {
				continue
			}

			// Grammars may reuse a name for several symbols; the name is the kind.
			name := lang.ts.SymbolName(sym)
			lang.kinds[name] = Kind(name)
		}
	})
}

func (lang *Language) String() string {
	return lang.Name
}
