package rates

import (
	"math"
	"testing"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
)

func almostEqual(t *testing.T, got, want, rtol float64, label string) {
	t.Helper()
	diff := math.Abs(got - want)
	scale := math.Abs(want)
	if scale == 0 {
		scale = 1
	}
	if diff/scale > rtol {
		t.Fatalf("%s = %v, want %v (rtol %v)", label, got, want, rtol)
	}
}

func TestArrheniusEvalWorkedExample(t *testing.T) {
	ctx := paramtree.DefaultUnitContext()
	units := paramtree.RateUnits{Order: 2, Quantity: "mol", Length: "cm", Time: "s"}

	node := paramtree.NewMapping()
	node.Set("rate-constant", func() *paramtree.Node {
		rc := paramtree.NewMapping()
		rc.Set("A", paramtree.NewScalar(3.52e16))
		rc.Set("b", paramtree.NewScalar(-0.7))
		rc.Set("Ea", paramtree.NewScalar(17069.0))
		return rc
	}())

	r := NewArrheniusRate()
	if err := r.SetParameters(node, ctx, units); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	if err := r.Validate("H + O2 <=> OH + O"); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	sd := evalcore.NewSharedData(1000.0, 101325.0)
	k := r.Eval(sd)
	almostEqual(t, k, 52022365.28933041, 1e-8, "k")
}

func TestArrheniusGetSetRoundTrip(t *testing.T) {
	ctx := paramtree.DefaultUnitContext()
	units := paramtree.RateUnits{Order: 2, Quantity: "mol", Length: "cm", Time: "s"}

	node := paramtree.NewMapping()
	rc := paramtree.NewMapping()
	rc.Set("A", paramtree.NewScalar(3.52e16))
	rc.Set("b", paramtree.NewScalar(-0.7))
	rc.Set("Ea", paramtree.NewScalar(17069.0))
	node.Set("rate-constant", rc)

	r := NewArrheniusRate()
	if err := r.SetParameters(node, ctx, units); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}

	out, err := r.GetParameters(ctx, units)
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	if !out.Equal(node, 1e-6) {
		t.Fatalf("round trip mismatch:\ngot:  %#v\nwant: %#v", out.ToAny(), node.ToAny())
	}
}

func TestArrheniusValidateRejectsNegativeA(t *testing.T) {
	r := NewArrheniusRateFrom(-1.0, 0, 0)
	if err := r.Validate("X <=> Y"); err == nil {
		t.Fatalf("expected error for negative A without negative-A: true")
	}
	r.AllowNegativeA = true
	if err := r.Validate("X <=> Y"); err != nil {
		t.Fatalf("Validate with AllowNegativeA: %v", err)
	}
}

func TestArrheniusUnsetEvaluatesToNaN(t *testing.T) {
	r := NewArrheniusRate()
	sd := evalcore.NewSharedData(1000.0, 101325.0)
	k := r.Eval(sd)
	if !math.IsNaN(k) {
		t.Fatalf("unset rate should evaluate to NaN, got %v", k)
	}
}

func TestArrheniusLinkPropagatesSetters(t *testing.T) {
	ev := evalcore.NewMultiRate[ArrheniusRate]()
	r := NewArrheniusRateFrom(1.0, 0, 0)
	idx := ev.Add(r)
	r.LinkEvaluator(idx, ev)

	if err := r.SetPreExponentialFactor(2.5); err != nil {
		t.Fatalf("SetPreExponentialFactor: %v", err)
	}
	stored, err := ev.Rate(idx)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if stored.Triple.A != 2.5 {
		t.Fatalf("evaluator's copy A = %v, want 2.5", stored.Triple.A)
	}
	got, err := r.Index()
	if err != nil || got != idx {
		t.Fatalf("Index() = %v, %v, want %v, nil", got, err, idx)
	}
}
