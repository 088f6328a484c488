package rates

import (
	"math"
	"testing"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
)

func TestCustomRateEvaluatesFn(t *testing.T) {
	r := NewCustomRateFrom(func(T float64) float64 { return 2 * T })
	sd := evalcore.NewSharedData(1000, 101325)
	k := r.Eval(sd)
	almostEqual(t, k, 2000.0, 1e-12, "k")
}

func TestCustomRateUnsetEvaluatesToNaN(t *testing.T) {
	r := NewCustomRate()
	sd := evalcore.NewSharedData(1000, 101325)
	if !math.IsNaN(r.Eval(sd)) {
		t.Fatalf("unset custom rate should evaluate to NaN")
	}
}

func TestCustomRateGetParametersIsEmpty(t *testing.T) {
	r := NewCustomRateFrom(func(T float64) float64 { return T })
	ctx := paramtree.DefaultUnitContext()
	node, err := r.GetParameters(ctx, paramtree.DefaultRateUnits(2))
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	if len(node.Keys()) != 0 {
		t.Fatalf("expected empty node, got %#v", node.ToAny())
	}
}
