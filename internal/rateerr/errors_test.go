package rateerr

import (
	"errors"
	"strings"
	"testing"
)

func TestWithEquationWrapsSentinel(t *testing.T) {
	err := WithEquation(ErrInvalidParameter, "H + O2 <=> OH + O", "negative A=%g", -1.0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("errors.Is(err, ErrInvalidParameter) = false, want true")
	}
	if !strings.Contains(err.Error(), "H + O2 <=> OH + O") {
		t.Fatalf("error message %q should include the equation", err.Error())
	}
}

func TestWithEquationWithoutEquation(t *testing.T) {
	err := WithEquation(ErrUnitMismatch, "", "unknown unit %q", "foo")
	if !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("errors.Is(err, ErrUnitMismatch) = false, want true")
	}
	if strings.Contains(err.Error(), "reaction") {
		t.Fatalf("error message %q should not mention a reaction when equation is empty", err.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrInvalidParameter, ErrUnitMismatch, ErrInvalidState, ErrDomainClamped}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v should not match %v", a, b)
			}
		}
	}
}
