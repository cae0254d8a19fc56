package transform

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownPlaceholderMode is returned for an unrecognized mode name.
var ErrUnknownPlaceholderMode = errors.New("unknown placeholder mode")

// PlaceholderMode selects how a placeholder name is located in node text.
type PlaceholderMode int

const (
	// PlaceholderSubstring treats any textual occurrence as a hit, including
	// occurrences inside longer identifiers or literals.
	PlaceholderSubstring PlaceholderMode = iota
	// PlaceholderIdentifier only counts occurrences not adjacent to another
	// identifier character.
	PlaceholderIdentifier
)

// Placeholder mode names accepted by ParsePlaceholderMode.
const (
	PlaceholderModeSubstring  = "substring"
	PlaceholderModeIdentifier = "identifier"
)

// ParsePlaceholderMode converts a configuration value into a PlaceholderMode.
func ParsePlaceholderMode(name string) (PlaceholderMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PlaceholderModeSubstring:
		return PlaceholderSubstring, nil
	case PlaceholderModeIdentifier:
		return PlaceholderIdentifier, nil
	default:
		return PlaceholderSubstring, fmt.Errorf("%w: %q", ErrUnknownPlaceholderMode, name)
	}
}

func (m PlaceholderMode) String() string {
	if m == PlaceholderIdentifier {
		return PlaceholderModeIdentifier
	}

	return PlaceholderModeSubstring
}

// Placeholders is the set of names the compiler treats as variable parts of
// an example.
type Placeholders struct {
	names []string
	mode  PlaceholderMode
}

// NewPlaceholders builds a placeholder set. Empty names are ignored.
func NewPlaceholders(names []string, mode PlaceholderMode) Placeholders {
	kept := make([]string, 0, len(names))

	for _, name := range names {
		if name != "" {
			kept = append(kept, name)
		}
	}

	return Placeholders{names: kept, mode: mode}
}

// Names returns the placeholder names.
func (ps Placeholders) Names() []string {
	return ps.names
}

// In reports whether text contains any placeholder.
func (ps Placeholders) In(text string) bool {
	for _, name := range ps.names {
		if ps.contains(text, name) {
			return true
		}
	}

	return false
}

// Is reports whether text is exactly one of the placeholder names.
func (ps Placeholders) Is(text string) bool {
	for _, name := range ps.names {
		if text == name {
			return true
		}
	}

	return false
}

func (ps Placeholders) contains(text, name string) bool {
	if ps.mode == PlaceholderSubstring {
		return strings.Contains(text, name)
	}

	for offset := 0; offset <= len(text)-len(name); {
		idx := strings.Index(text[offset:], name)
		if idx < 0 {
			return false
		}

		start := offset + idx
		end := start + len(name)

		if !identRuneBefore(text, start) && !identRuneAfter(text, end) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}

	return false
}

func identRuneBefore(text string, pos int) bool {
	if pos == 0 {
		return false
	}

	r, _ := utf8.DecodeLastRuneInString(text[:pos])

	return isIdentRune(r)
}

func identRuneAfter(text string, pos int) bool {
	if pos >= len(text) {
		return false
	}

	r, _ := utf8.DecodeRuneInString(text[pos:])

	return isIdentRune(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
