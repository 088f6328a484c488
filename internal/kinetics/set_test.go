package kinetics

import (
	"math"
	"testing"

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

func mapNode(pairs ...any) *paramtree.Node {
	n := paramtree.NewMapping()
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case *paramtree.Node:
			n.Set(key, v)
		default:
			n.Set(key, paramtree.NewScalar(v))
		}
	}
	return n
}

func seqNode(items ...*paramtree.Node) *paramtree.Node {
	n := paramtree.NewSequence()
	for _, item := range items {
		n.Append(item)
	}
	return n
}

func TestSetLoadAndEvalElementary(t *testing.T) {
	doc := mapNode("reactions", seqNode(
		mapNode(
			"equation", "H + O2 <=> OH + O",
			"reactants", mapNode("H", 1.0, "O2", 1.0),
			"rate-constant", mapNode("A", 3.52e16, "b", -0.7, "Ea", 17069.0),
		),
	))

	set := NewSet(paramtree.DefaultUnitContext())
	if err := set.LoadReactions(doc); err != nil {
		t.Fatalf("LoadReactions: %v", err)
	}
	if set.ReactionCount() != 1 {
		t.Fatalf("ReactionCount() = %d, want 1", set.ReactionCount())
	}

	set.Update(1000.0, 101325.0, nil)
	out := make([]float64, 1)
	if err := set.Eval(out); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	almostEqual(t, out[0], 52022365.28933041, 1e-8, "k")
}

func TestSetDispatchesEachVariant(t *testing.T) {
	doc := mapNode("reactions", seqNode(
		mapNode(
			"equation", "A <=> B",
			"reactants", mapNode("A", 1.0),
			"rate-constant", mapNode("A", 1.0, "b", 0.0, "Ea", 0.0),
		),
		mapNode(
			"equation", "A + M <=> B + M",
			"type", VariantThreeBody,
			"reactants", mapNode("A", 1.0),
			"rate-constant", mapNode("A", 1.0, "b", 0.0, "Ea", 0.0),
		),
		mapNode(
			"equation", "A (+M) <=> B (+M)",
			"type", VariantFalloff,
			"reactants", mapNode("A", 1.0),
			"high-P-rate-constant", mapNode("A", 10.0, "b", 0.0, "Ea", 0.0),
			"low-P-rate-constant", mapNode("A", 2.0, "b", 0.0, "Ea", 0.0),
		),
		mapNode(
			"equation", "A + B <=> C",
			"type", VariantPlog,
			"reactants", mapNode("A", 1.0, "B", 1.0),
			"rate-constants", seqNode(
				mapNode("P", 1e3, "A", 1.0, "b", 0.0, "Ea", 0.0),
				mapNode("P", 1e5, "A", 100.0, "b", 0.0, "Ea", 0.0),
			),
		),
	))

	set := NewSet(paramtree.DefaultUnitContext())
	if err := set.LoadReactions(doc); err != nil {
		t.Fatalf("LoadReactions: %v", err)
	}
	if set.ReactionCount() != 4 {
		t.Fatalf("ReactionCount() = %d, want 4", set.ReactionCount())
	}

	set.Update(1000.0, 1e4, map[string]float64{"A": 0.01})
	out := make([]float64, 4)
	if err := set.Eval(out); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	for i, k := range out {
		if math.IsNaN(k) {
			t.Fatalf("reaction %d (%s) evaluated to NaN", i, set.Equation(i))
		}
	}
}

func TestSetRejectsUnknownVariant(t *testing.T) {
	doc := mapNode("reactions", seqNode(
		mapNode("equation", "A <=> B", "type", "not-a-real-variant"),
	))
	set := NewSet(paramtree.DefaultUnitContext())
	if err := set.LoadReactions(doc); err == nil {
		t.Fatalf("expected error for unknown reaction type")
	}
}

func TestSetAddCustom(t *testing.T) {
	set := NewSet(paramtree.DefaultUnitContext())
	set.AddCustom("A <=> B (custom)", func(T float64) float64 { return 3 * T })
	set.Update(1000.0, 101325.0, nil)
	out := make([]float64, 1)
	if err := set.Eval(out); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	almostEqual(t, out[0], 3000.0, 1e-12, "custom k")
}
