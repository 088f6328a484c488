// Package rateerr defines the error-kind taxonomy used across the
// reaction-rate core: invalid-parameter, unit-mismatch, invalid-state,
// and domain-clamped (diagnostic only, never returned).
package rateerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind sentinels. Callers compare with errors.Is after unwrapping.
var (
	ErrInvalidParameter = errors.New("invalid-parameter")
	ErrUnitMismatch     = errors.New("unit-mismatch")
	ErrInvalidState     = errors.New("invalid-state")

	// ErrDomainClamped is never returned; it exists so validation
	// diagnostics can tag a log line with the same kind vocabulary.
	ErrDomainClamped = errors.New("domain-clamped")
)

// WithEquation wraps kind with the reaction equation string that was
// being configured or validated when the error occurred, preserving kind
// in the Unwrap chain so errors.Is(err, rateerr.ErrInvalidParameter) still
// works after wrapping.
func WithEquation(kind error, equation string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if equation == "" {
		return errors.Wrap(kind, msg)
	}
	return errors.Wrapf(kind, "reaction %q: %s", equation, msg)
}
