package rates

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/obslog"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// TroeParams are the four Troe blending-function constants; when absent
// from a FalloffRate the blend reduces to Lindemann (F=1).
type TroeParams struct {
	A, T3, T1, T2 float64
	HasT2         bool // T2 is optional; when false the exp(-T2/T) term is omitted
}

// fcent evaluates Troe's center broadening function at T.
func (p TroeParams) fcent(T float64) float64 {
	fc := (1-p.A)*math.Exp(-T/p.T3) + p.A*math.Exp(-T/p.T1)
	if p.HasT2 {
		fc += math.Exp(-p.T2 / T)
	}
	return fc
}

// blendLog10F computes log10(F) given log10(Fcent) and the reduced pressure Pr
// (Pr must be > 0; callers special-case Pr<=0 before calling).
func blendLog10F(log10Fcent, pr float64) float64 {
	c := -0.4 - 0.67*log10Fcent
	n := 0.75 - 1.27*log10Fcent
	x := math.Log10(pr) + c
	f1 := x / (n - 0.14*x)
	return log10Fcent / (1 + f1*f1)
}

// FalloffRate is the Lindemann/Troe pressure-dependent variant: low- and
// high-pressure Arrhenius limits blended by Pr = k0*[M]/k_inf and, when
// Troe parameters are present, Troe's F factor (§4.5).
type FalloffRate struct {
	Low          ArrheniusTriple
	High         ArrheniusTriple
	Efficiencies Efficiencies
	Troe         *TroeParams

	cachedLog10Fcent float64
	haveCache        bool

	link evalcore.Link[FalloffRate]
}

// NewFalloffRate returns a default-constructed (unset) rate.
func NewFalloffRate() FalloffRate {
	return FalloffRate{Low: NaNTriple(), High: NaNTriple(), Efficiencies: Efficiencies{}}
}

// SetParameters reads low-P-rate-constant, high-P-rate-constant, the
// optional Troe block, and efficiencies. units is the high-pressure
// (bimolecular) rate-unit context; the low-pressure limit's order is
// units.Order+1 since it carries an extra third-body concentration factor.
func (r *FalloffRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
	if node == nil || node.IsNull() {
		return nil
	}
	lowUnits := units
	lowUnits.Order = units.Order + 1

	if lowNode, ok := node.Get("low-P-rate-constant"); ok {
		triple, err := readTriple(lowNode, ctx, lowUnits)
		if err != nil {
			return err
		}
		r.Low = triple
	}
	if highNode, ok := node.Get("high-P-rate-constant"); ok {
		triple, err := readTriple(highNode, ctx, units)
		if err != nil {
			return err
		}
		r.High = triple
	}
	if troeNode, ok := node.Get("Troe"); ok {
		troe, err := readTroe(troeNode)
		if err != nil {
			return err
		}
		r.Troe = troe
	} else {
		obslog.L().Debugw("falloff rate configured without Troe parameters, falling back to Lindemann blending (F=1)")
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
	r.haveCache = false

	low, high, troe := r.Low, r.High, r.Troe
	return evalcore.Propagate(&r.link, func(cp *FalloffRate) {
		cp.Low, cp.High, cp.Troe, cp.Efficiencies = low, high, troe, effs
		cp.haveCache = false
	})
}

func readTroe(n *paramtree.Node) (*TroeParams, error) {
	get := func(key string) (float64, bool, error) {
		node, ok := n.Get(key)
		if !ok {
			return 0, false, nil
		}
		f, ok := node.Float()
		if !ok {
			return 0, false, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Troe %s must be numeric", key)
		}
		return f, true, nil
	}
	a, ok, err := get("A")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Troe block missing A")
	}
	t3, ok, err := get("T3")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Troe block missing T3")
	}
	t1, ok, err := get("T1")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Troe block missing T1")
	}
	t2, has, err := get("T2")
	if err != nil {
		return nil, err
	}
	return &TroeParams{A: a, T3: t3, T1: t1, T2: t2, HasT2: has}, nil
}

// GetParameters emits low/high rate constants, efficiencies, and Troe.
func (r *FalloffRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	node := paramtree.NewMapping()
	lowUnits := units
	lowUnits.Order = units.Order + 1

	if !math.IsNaN(r.Low.A) {
		rc, err := writeTriple(r.Low, ctx, lowUnits)
		if err != nil {
			return nil, err
		}
		node.Set("low-P-rate-constant", rc)
	}
	if !math.IsNaN(r.High.A) {
		rc, err := writeTriple(r.High, ctx, units)
		if err != nil {
			return nil, err
		}
		node.Set("high-P-rate-constant", rc)
	}
	if r.Troe != nil {
		troe := paramtree.NewMapping()
		troe.Set("A", paramtree.NewScalar(r.Troe.A))
		troe.Set("T3", paramtree.NewScalar(r.Troe.T3))
		troe.Set("T1", paramtree.NewScalar(r.Troe.T1))
		if r.Troe.HasT2 {
			troe.Set("T2", paramtree.NewScalar(r.Troe.T2))
		}
		node.Set("Troe", troe)
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

// Validate requires both limits to be non-negative. Unlike the elementary
// and three-body variants, falloff rates don't expose a negative-A escape
// hatch: a negative limit at either end produces a negative blended rate
// over some part of the pressure range regardless of any opt-in flag.
func (r *FalloffRate) Validate(equation string) error {
	if !math.IsNaN(r.Low.A) && r.Low.A < 0 {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "negative low-pressure A=%g", r.Low.A)
	}
	if !math.IsNaN(r.High.A) && r.High.A < 0 {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "negative high-pressure A=%g", r.High.A)
	}
	return nil
}

// PrepareBatch caches Troe's log10(Fcent(T)), which depends only on T,
// once per evaluation batch rather than once per Eval call.
func (r *FalloffRate) PrepareBatch(sd evalcore.SharedData) {
	if r.Troe == nil {
		r.haveCache = false
		return
	}
	r.cachedLog10Fcent = math.Log10(r.Troe.fcent(sd.T))
	r.haveCache = true
}

// Eval computes k_eff = k_inf * Pr/(1+Pr) * F, Pr = k0*[M]/k_inf, with
// [M] weighted by this rate's own Efficiencies (§3).
func (r FalloffRate) Eval(sd evalcore.SharedData) float64 {
	k0 := r.Low.Eval(sd.LogT, sd.RecipT)
	kInf := r.High.Eval(sd.LogT, sd.RecipT)
	m := r.Efficiencies.EffectiveM(sd.Concentrations)
	pr := k0 * m / kInf
	if !(pr > 0) {
		return kInf * 0
	}
	f := 1.0
	if r.Troe != nil {
		log10Fcent := r.cachedLog10Fcent
		if !r.haveCache {
			log10Fcent = math.Log10(r.Troe.fcent(sd.T))
		}
		f = math.Pow(10, blendLog10F(log10Fcent, pr))
	}
	return kInf * (pr / (1 + pr)) * f
}

// SetLowPressureRateConstant sets the low-pressure Arrhenius limit.
func (r *FalloffRate) SetLowPressureRateConstant(t ArrheniusTriple) error {
	r.Low = t
	r.haveCache = false
	return evalcore.Propagate(&r.link, func(cp *FalloffRate) { cp.Low = t; cp.haveCache = false })
}

// SetHighPressureRateConstant sets the high-pressure Arrhenius limit.
func (r *FalloffRate) SetHighPressureRateConstant(t ArrheniusTriple) error {
	r.High = t
	return evalcore.Propagate(&r.link, func(cp *FalloffRate) { cp.High = t })
}

// SetTroeParameters sets (or clears, with nil) the Troe blending constants.
func (r *FalloffRate) SetTroeParameters(p *TroeParams) error {
	r.Troe = p
	r.haveCache = false
	return evalcore.Propagate(&r.link, func(cp *FalloffRate) { cp.Troe = p; cp.haveCache = false })
}

// SetEfficiencies replaces the third-body efficiency map.
func (r *FalloffRate) SetEfficiencies(effs Efficiencies) error {
	r.Efficiencies = effs
	return evalcore.Propagate(&r.link, func(cp *FalloffRate) { cp.Efficiencies = effs })
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *FalloffRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[FalloffRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator.
func (r *FalloffRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *FalloffRate) Index() (int, error) {
	return r.link.Index()
}
