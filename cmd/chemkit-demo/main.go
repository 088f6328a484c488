// Command chemkit-demo builds a small in-memory mechanism, evaluates its
// rate constants at a sample state, and prints them.
package main

import (
	"fmt"
	"os"

	"github.com/sarat-asymmetrica/chemkit/internal/kinetics"
	"github.com/sarat-asymmetrica/chemkit/internal/obslog"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
)

func mapping(pairs ...any) *paramtree.Node {
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

func sequence(items ...*paramtree.Node) *paramtree.Node {
	n := paramtree.NewSequence()
	for _, item := range items {
		n.Append(item)
	}
	return n
}

func buildMechanism() *paramtree.Node {
	reactions := sequence(
		mapping(
			"equation", "H + O2 <=> OH + O",
			"reactants", mapping("H", 1.0, "O2", 1.0),
			"rate-constant", mapping("A", 3.52e16, "b", -0.7, "Ea", 17069.0),
		),
		mapping(
			"equation", "H + O2 + M <=> HO2 + M",
			"type", kinetics.VariantThreeBody,
			"reactants", mapping("H", 1.0, "O2", 1.0),
			"rate-constant", mapping("A", 5.75e19, "b", -1.4, "Ea", 0.0),
			"efficiencies", mapping("H2O", 11.0, "AR", 0.7),
		),
		mapping(
			"equation", "H + O2 (+M) <=> HO2 (+M)",
			"type", kinetics.VariantFalloff,
			"reactants", mapping("H", 1.0, "O2", 1.0),
			"high-P-rate-constant", mapping("A", 4.65e12, "b", 0.44, "Ea", 0.0),
			"low-P-rate-constant", mapping("A", 6.37e20, "b", -1.72, "Ea", 525.0),
			"Troe", mapping("A", 0.8, "T3", 1.0e-30, "T1", 1.0e30),
		),
	)
	return mapping("reactions", reactions)
}

func main() {
	obslog.L().Info("starting chemkit demo")

	ctx := paramtree.DefaultUnitContext()
	set := kinetics.NewSet(ctx)
	if err := set.LoadReactions(buildMechanism()); err != nil {
		obslog.L().Errorw("loading mechanism", "error", err)
		os.Exit(1)
	}

	concentrations := map[string]float64{
		"H":   1e-6,
		"O2":  1e-5,
		"H2O": 1e-4,
		"AR":  1e-4,
	}
	set.Update(1000.0, 101325.0, concentrations)

	out := make([]float64, set.ReactionCount())
	if err := set.Eval(out); err != nil {
		obslog.L().Errorw("evaluating mechanism", "error", err)
		os.Exit(1)
	}

	for i, k := range out {
		fmt.Printf("%-32s k = %.6e\n", set.Equation(i), k)
	}
}
