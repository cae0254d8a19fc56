package transform

// Binding is the single placeholder slot of one match attempt. It is a value:
// matching returns an updated copy, so a failed branch never leaks a capture.
type Binding struct {
	value string
	bound bool
}

// Bound returns a binding holding text.
func Bound(text string) Binding {
	return Binding{value: text, bound: true}
}

// Value returns the captured text and whether anything was captured.
func (b Binding) Value() (string, bool) {
	return b.value, b.bound
}

func (b Binding) bind(text string) (Binding, error) {
	if b.bound {
		return b, ErrAlreadyBound
	}

	return Bound(text), nil
}
