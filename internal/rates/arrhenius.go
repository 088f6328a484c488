// Package rates implements the rate-law taxonomy: Arrhenius, Plog,
// Chebyshev, ThreeBody, Falloff, and Custom, all behind the same
// contract (SetParameters / GetParameters / Validate / Eval) so a
// MultiRate evaluator can batch any one of them.
package rates

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// ArrheniusTriple is the shared (A, b, E/R) building block: k = A * T^b *
// exp(-(E/R)/T). E/R is always stored in Kelvin regardless of the energy
// unit the rate was configured with (§3 invariant).
type ArrheniusTriple struct {
	A  float64
	B  float64
	ER float64
}

// NaNTriple is the pending/unset state: every field NaN, evaluating to NaN.
func NaNTriple() ArrheniusTriple {
	return ArrheniusTriple{A: math.NaN(), B: math.NaN(), ER: math.NaN()}
}

// Eval computes k given the shared log T and 1/T.
func (t ArrheniusTriple) Eval(logT, recipT float64) float64 {
	return t.A * math.Exp(t.B*logT-t.ER*recipT)
}

// LogK computes log(k), used by Plog's log-pressure interpolation.
func (t ArrheniusTriple) LogK(logT, recipT float64) float64 {
	return math.Log(t.A) + t.B*logT - t.ER*recipT
}

func readTriple(rc *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) (ArrheniusTriple, error) {
	aNode, ok := rc.Get("A")
	if !ok {
		return ArrheniusTriple{}, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "rate-constant missing A")
	}
	aRaw, ok := aNode.Float()
	if !ok {
		return ArrheniusTriple{}, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "A must be numeric")
	}
	aSI, err := paramtree.ConvertRateConstant(aRaw, units, paramtree.DefaultRateUnits(units.Order))
	if err != nil {
		return ArrheniusTriple{}, err
	}

	bVal := 0.0
	if bNode, ok := rc.Get("b"); ok {
		bVal, ok = bNode.Float()
		if !ok {
			return ArrheniusTriple{}, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "b must be numeric")
		}
	}

	erVal := 0.0
	if eaNode, ok := rc.Get("Ea"); ok {
		eaRaw, eaUnit, err := paramtree.ReadQuantity(eaNode, ctx.ActivationEnergy)
		if err != nil {
			return ArrheniusTriple{}, err
		}
		erVal, err = paramtree.ActivationEnergyToER(eaRaw, eaUnit)
		if err != nil {
			return ArrheniusTriple{}, err
		}
	}

	return ArrheniusTriple{A: aSI, B: bVal, ER: erVal}, nil
}

func writeTriple(t ArrheniusTriple, ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	aOut, err := paramtree.ConvertRateConstant(t.A, paramtree.DefaultRateUnits(units.Order), units)
	if err != nil {
		return nil, err
	}
	eaOut, err := paramtree.ERToActivationEnergy(t.ER, ctx.ActivationEnergy)
	if err != nil {
		return nil, err
	}
	rc := paramtree.NewMapping()
	rc.Set("A", paramtree.NewScalar(aOut))
	rc.Set("b", paramtree.NewScalar(t.B))
	rc.Set("Ea", paramtree.NewScalar(eaOut))
	return rc, nil
}

// ArrheniusRate is the elementary rate-law variant: a single Arrhenius
// triple plus the negative-A validation policy.
type ArrheniusRate struct {
	Triple         ArrheniusTriple
	AllowNegativeA bool

	link evalcore.Link[ArrheniusRate]
}

// NewArrheniusRate returns a default-constructed (unset, NaN) rate.
func NewArrheniusRate() ArrheniusRate {
	return ArrheniusRate{Triple: NaNTriple()}
}

// NewArrheniusRateFrom constructs directly from numeric coefficients
// already normalized to E/R in Kelvin and A in SI rate units.
func NewArrheniusRateFrom(a, b, er float64) ArrheniusRate {
	return ArrheniusRate{Triple: ArrheniusTriple{A: a, B: b, ER: er}}
}

// SetParameters configures the rate from a `rate-constant: {A,b,Ea}` node
// plus an optional `negative-A` boolean. A node without `rate-constant`
// leaves the rate unset rather than erroring (§4.2).
func (r *ArrheniusRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
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
	rc, ok := node.Get("rate-constant")
	if !ok {
		return nil
	}
	triple, err := readTriple(rc, ctx, units)
	if err != nil {
		return err
	}
	r.Triple = triple
	return evalcore.Propagate(&r.link, func(cp *ArrheniusRate) {
		cp.Triple = triple
		cp.AllowNegativeA = r.AllowNegativeA
	})
}

// GetParameters emits the node form under the given unit contexts.
// negative-A is emitted only when true; rate-constant only when set.
func (r *ArrheniusRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	node := paramtree.NewMapping()
	if r.AllowNegativeA {
		node.Set("negative-A", paramtree.NewScalar(true))
	}
	if math.IsNaN(r.Triple.A) {
		return node, nil
	}
	rc, err := writeTriple(r.Triple, ctx, units)
	if err != nil {
		return nil, err
	}
	node.Set("rate-constant", rc)
	return node, nil
}

// Validate fails when A is negative and negative-A wasn't allowed.
func (r *ArrheniusRate) Validate(equation string) error {
	if math.IsNaN(r.Triple.A) {
		return nil
	}
	if r.Triple.A < 0 && !r.AllowNegativeA {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "negative pre-exponential factor A=%g without negative-A: true", r.Triple.A)
	}
	return nil
}

// Eval computes k. An unset rate evaluates to NaN rather than erroring,
// preserving batch semantics (§7).
func (r ArrheniusRate) Eval(sd evalcore.SharedData) float64 {
	return r.Triple.Eval(sd.LogT, sd.RecipT)
}

// SetPreExponentialFactor sets A (already expressed in SI rate units) and
// forwards the change to the linked evaluator's copy, if any.
func (r *ArrheniusRate) SetPreExponentialFactor(a float64) error {
	r.Triple.A = a
	return evalcore.Propagate(&r.link, func(cp *ArrheniusRate) { cp.Triple.A = a })
}

// SetTemperatureExponent sets b.
func (r *ArrheniusRate) SetTemperatureExponent(b float64) error {
	r.Triple.B = b
	return evalcore.Propagate(&r.link, func(cp *ArrheniusRate) { cp.Triple.B = b })
}

// SetActivationEnergy sets E/R directly, in Kelvin.
func (r *ArrheniusRate) SetActivationEnergy(erKelvin float64) error {
	r.Triple.ER = erKelvin
	return evalcore.Propagate(&r.link, func(cp *ArrheniusRate) { cp.Triple.ER = erKelvin })
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *ArrheniusRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[ArrheniusRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator. Idempotent.
func (r *ArrheniusRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *ArrheniusRate) Index() (int, error) {
	return r.link.Index()
}
