package transform

// Repeat is the multiplicity of a sub-pattern within its parent's child sequence.
// The matcher honours every tag with backtracking, while the compiler and the
// renderer only deal in RepeatSingle.
type Repeat int

const (
	// RepeatSingle matches exactly one child. The compiler only produces this.
	RepeatSingle Repeat = iota
	// RepeatOptional matches zero or one child.
	RepeatOptional
	// RepeatAtLeastOne matches one or more children.
	RepeatAtLeastOne
	// RepeatMany matches zero or more children.
	RepeatMany
)

func (r Repeat) String() string {
	switch r {
	case RepeatSingle:
		return ""
	case RepeatOptional:
		return "?"
	case RepeatAtLeastOne:
		return "+"
	case RepeatMany:
		return "*"
	default:
		return "unknown"
	}
}

// bounds returns the minimum and maximum number of children the repeat
// consumes, capped by available.
func (r Repeat) bounds(available int) (lo, hi int, ok bool) {
	switch r {
	case RepeatSingle:
		return 1, 1, true
	case RepeatOptional:
		return 0, 1, true
	case RepeatAtLeastOne:
		return 1, available, true
	case RepeatMany:
		return 0, available, true
	default:
		return 0, 0, false
	}
}
