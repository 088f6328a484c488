package rates

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
)

// CustomFunc is a user-supplied rate expression: given temperature in
// Kelvin, return k in SI rate units. It is never round-tripped through a
// parameter tree (§4.7) — callers wire it in code, not from a file.
type CustomFunc func(T float64) float64

// CustomRate wraps an opaque CustomFunc so it can sit in a MultiRate
// alongside the other variants. Comparisons and serialization don't apply
// to function values, so GetParameters always returns an empty node and
// Validate never rejects it: correctness of Fn is the caller's problem.
type CustomRate struct {
	Fn CustomFunc

	link evalcore.Link[CustomRate]
}

// NewCustomRate returns a rate that evaluates to NaN until Fn is set.
func NewCustomRate() CustomRate {
	return CustomRate{}
}

// NewCustomRateFrom wraps fn directly.
func NewCustomRateFrom(fn CustomFunc) CustomRate {
	return CustomRate{Fn: fn}
}

// SetParameters is a no-op: custom rates carry no serializable state
// beyond the function itself, which the parameter tree cannot represent.
func (r *CustomRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
	return nil
}

// GetParameters always returns an empty mapping.
func (r *CustomRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	return paramtree.NewMapping(), nil
}

// Validate never fails; an unset Fn simply evaluates to NaN.
func (r *CustomRate) Validate(equation string) error {
	return nil
}

// Eval calls Fn(T), or returns NaN if Fn is nil.
func (r CustomRate) Eval(sd evalcore.SharedData) float64 {
	if r.Fn == nil {
		return math.NaN()
	}
	return r.Fn(sd.T)
}

// SetFunc replaces the wrapped function and propagates it to a linked
// evaluator's copy.
func (r *CustomRate) SetFunc(fn CustomFunc) error {
	r.Fn = fn
	return evalcore.Propagate(&r.link, func(cp *CustomRate) { cp.Fn = fn })
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *CustomRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[CustomRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator.
func (r *CustomRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *CustomRate) Index() (int, error) {
	return r.link.Index()
}
