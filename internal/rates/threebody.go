package rates

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// Efficiencies maps species name to third-body collision efficiency.
// Species absent from the map default to 1.0 (§3).
type Efficiencies map[string]float64

// EffectiveM computes [M] = sum(eps_s * [X_s]) given per-species
// concentrations, defaulting unlisted species to efficiency 1.0.
func (e Efficiencies) EffectiveM(concentrations map[string]float64) float64 {
	var m float64
	for species, conc := range concentrations {
		eps, ok := e[species]
		if !ok {
			eps = 1.0
		}
		m += eps * conc
	}
	return m
}

// ThreeBodyRate is k_eff(T,[M]) = k(T) * [M], with [M] computed per-call
// from SharedData.Concentrations weighted by this rate's own Efficiencies.
type ThreeBodyRate struct {
	Triple         ArrheniusTriple
	Efficiencies   Efficiencies
	AllowNegativeA bool

	link evalcore.Link[ThreeBodyRate]
}

// NewThreeBodyRate returns a default-constructed (unset) rate.
func NewThreeBodyRate() ThreeBodyRate {
	return ThreeBodyRate{Triple: NaNTriple(), Efficiencies: Efficiencies{}}
}

// SetParameters configures from a `rate-constant` node plus `efficiencies`.
// Order passed in units must already account for the third body (total
// concentration exponent = reactant count + 1).
func (r *ThreeBodyRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
	if node == nil || node.IsNull() {
		return nil
	}
	if negNode, ok := node.Get("negative-A"); ok {
		neg, ok := negNode.Bool()
		if !ok {
			return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "negative-A must be a boolean")
		}
		r.AllowNegativeA = neg
	}
	if rc, ok := node.Get("rate-constant"); ok {
		triple, err := readTriple(rc, ctx, units)
		if err != nil {
			return err
		}
		r.Triple = triple
	}
	effs := Efficiencies{}
	if effNode, ok := node.Get("efficiencies"); ok {
		for _, k := range effNode.Keys() {
			v, _ := effNode.Get(k)
			f, ok := v.Float()
			if !ok {
				return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "efficiency for %q must be numeric", k)
			}
			effs[k] = f
		}
	}
	r.Efficiencies = effs
	triple := r.Triple
	return evalcore.Propagate(&r.link, func(cp *ThreeBodyRate) {
		cp.Triple = triple
		cp.Efficiencies = effs
		cp.AllowNegativeA = r.AllowNegativeA
	})
}

// GetParameters emits rate-constant and efficiencies.
func (r *ThreeBodyRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	node := paramtree.NewMapping()
	if r.AllowNegativeA {
		node.Set("negative-A", paramtree.NewScalar(true))
	}
	if !math.IsNaN(r.Triple.A) {
		rc, err := writeTriple(r.Triple, ctx, units)
		if err != nil {
			return nil, err
		}
		node.Set("rate-constant", rc)
	}
	if len(r.Efficiencies) > 0 {
		eff := paramtree.NewMapping()
		for species, val := range r.Efficiencies {
			eff.Set(species, paramtree.NewScalar(val))
		}
		node.Set("efficiencies", eff)
	}
	return node, nil
}

// Validate applies the same negative-A policy as ArrheniusRate.
func (r *ThreeBodyRate) Validate(equation string) error {
	if math.IsNaN(r.Triple.A) {
		return nil
	}
	if r.Triple.A < 0 && !r.AllowNegativeA {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "negative pre-exponential factor A=%g without negative-A: true", r.Triple.A)
	}
	return nil
}

// Eval computes k(T) * [M], weighting sd.Concentrations by this rate's own
// Efficiencies (§3: unlisted species default to efficiency 1.0).
func (r ThreeBodyRate) Eval(sd evalcore.SharedData) float64 {
	m := r.Efficiencies.EffectiveM(sd.Concentrations)
	return r.Triple.Eval(sd.LogT, sd.RecipT) * m
}

// SetPreExponentialFactor sets A and propagates to a linked evaluator.
func (r *ThreeBodyRate) SetPreExponentialFactor(a float64) error {
	r.Triple.A = a
	return evalcore.Propagate(&r.link, func(cp *ThreeBodyRate) { cp.Triple.A = a })
}

// SetEfficiencies replaces the efficiency map.
func (r *ThreeBodyRate) SetEfficiencies(effs Efficiencies) error {
	r.Efficiencies = effs
	return evalcore.Propagate(&r.link, func(cp *ThreeBodyRate) { cp.Efficiencies = effs })
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *ThreeBodyRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[ThreeBodyRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator.
func (r *ThreeBodyRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *ThreeBodyRate) Index() (int, error) {
	return r.link.Index()
}
