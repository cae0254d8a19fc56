package transform

import (
	"errors"
	"fmt"
)

// ErrNoMatch is the ordinary outcome of a pattern that does not fit a node.
// It is never fatal: callers try the next rule or report "no result".
var ErrNoMatch = errors.New("pattern does not match")

// ErrContract marks every violation of the rule shape the engine supports.
// Errors wrapping it are not recoverable by trying another input; the rule
// itself is unusable.
var ErrContract = errors.New("rule contract violation")

// Contract violations.
var (
	ErrAlreadyBound         = fmt.Errorf("%w: placeholder bound twice in one match", ErrContract)
	ErrUnboundPlaceholder   = fmt.Errorf("%w: placeholder rendered without a binding", ErrContract)
	ErrUnsupportedRepeat    = fmt.Errorf("%w: repeat other than single", ErrContract)
	ErrTextVarUnsupported   = fmt.Errorf("%w: placeholder inside literal text", ErrContract)
	ErrAmbiguousPlaceholder = fmt.Errorf("%w: placeholder occurs in more than one independent node", ErrContract)
	ErrUnknownPattern       = fmt.Errorf("%w: unknown pattern variant", ErrContract)
)

// ErrInvalidOutput is returned when output validation is enabled and the
// rendered text does not parse under the target language.
var ErrInvalidOutput = errors.New("rewritten text does not parse under target language")

// IsContractViolation reports whether err is a rule contract violation.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContract)
}
