// Package kinetics assembles a mechanism's individual rate expressions
// into one evaluable unit: it reads a reaction list out of a parameter
// tree, dispatches each entry to the MultiRate batch matching its variant,
// and offers a single Update/Eval pair across the whole mechanism.
package kinetics

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/obslog"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
	"github.com/sarat-asymmetrica/chemkit/internal/rates"
)

// Variant tags accepted in a reaction entry's `type` field. Entries
// without a `type` default to VariantElementary.
const (
	VariantElementary = "elementary"
	VariantThreeBody  = "three-body"
	VariantFalloff    = "falloff"
	VariantPlog       = "pressure-dependent-Arrhenius"
	VariantChebyshev  = "Chebyshev"
)

// reactionRef locates one reaction's rate within its variant's MultiRate.
type reactionRef struct {
	equation string
	variant  string
	index    int
}

// Set is a mechanism's worth of rate expressions, grouped by variant into
// dense MultiRate batches and addressable in registration order. Custom
// rates aren't read from a parameter tree (they carry a Go function) and
// are added directly via AddCustom.
type Set struct {
	ctx paramtree.UnitContext

	arrhenius *evalcore.MultiRate[rates.ArrheniusRate]
	threeBody *evalcore.MultiRate[rates.ThreeBodyRate]
	falloff   *evalcore.MultiRate[rates.FalloffRate]
	plog      *evalcore.MultiRate[rates.PlogRate]
	chebyshev *evalcore.MultiRate[rates.ChebyshevRate]
	custom    *evalcore.MultiRate[rates.CustomRate]

	refs []reactionRef
}

// NewSet returns an empty mechanism under ctx (the unit system a bare,
// unsuffixed literal is interpreted under).
func NewSet(ctx paramtree.UnitContext) *Set {
	return &Set{
		ctx:       ctx,
		arrhenius: evalcore.NewMultiRate[rates.ArrheniusRate](),
		threeBody: evalcore.NewMultiRate[rates.ThreeBodyRate](),
		falloff:   evalcore.NewMultiRate[rates.FalloffRate](),
		plog:      evalcore.NewMultiRate[rates.PlogRate](),
		chebyshev: evalcore.NewMultiRate[rates.ChebyshevRate](),
		custom:    evalcore.NewMultiRate[rates.CustomRate](),
	}
}

// LoadReactions reads a `reactions` sequence, each entry an `equation`,
// optional `type` (default elementary), `reactants` stoichiometry mapping
// used to derive the rate-unit Order, and the variant-specific rate
// fields understood by that variant's SetParameters.
func (s *Set) LoadReactions(node *paramtree.Node) error {
	seq, ok := node.Get("reactions")
	if !ok {
		return nil
	}
	for i := 0; i < seq.Len(); i++ {
		if err := s.loadOne(seq.At(i)); err != nil {
			return err
		}
	}
	obslog.L().Debugw("loaded reaction mechanism", "reactions", s.ReactionCount())
	return nil
}

func (s *Set) loadOne(item *paramtree.Node) error {
	eqNode, ok := item.Get("equation")
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "reaction entry missing equation")
	}
	equation, _ := eqNode.String()

	variant := VariantElementary
	if typeNode, ok := item.Get("type"); ok {
		if v, ok := typeNode.String(); ok && v != "" {
			variant = v
		}
	}

	order := 0
	if reactantsNode, ok := item.Get("reactants"); ok {
		for _, species := range reactantsNode.Keys() {
			v, _ := reactantsNode.Get(species)
			count, ok := v.Float()
			if !ok {
				return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "reactants[%q] must be numeric", species)
			}
			order += int(math.Round(count))
		}
	}
	units := paramtree.RateUnits{Order: order, Quantity: s.ctx.Quantity, Length: s.ctx.Length, Time: s.ctx.Time}

	switch variant {
	case VariantElementary:
		r := rates.NewArrheniusRate()
		if err := r.SetParameters(item, s.ctx, units); err != nil {
			return rateerr.WithEquation(err, equation, "configuring rate")
		}
		if err := r.Validate(equation); err != nil {
			return err
		}
		idx := s.arrhenius.Add(r)
		s.refs = append(s.refs, reactionRef{equation, variant, idx})

	case VariantThreeBody:
		r := rates.NewThreeBodyRate()
		units.Order = order + 1
		if err := r.SetParameters(item, s.ctx, units); err != nil {
			return rateerr.WithEquation(err, equation, "configuring rate")
		}
		if err := r.Validate(equation); err != nil {
			return err
		}
		idx := s.threeBody.Add(r)
		s.refs = append(s.refs, reactionRef{equation, variant, idx})

	case VariantFalloff:
		r := rates.NewFalloffRate()
		if err := r.SetParameters(item, s.ctx, units); err != nil {
			return rateerr.WithEquation(err, equation, "configuring rate")
		}
		if err := r.Validate(equation); err != nil {
			return err
		}
		idx := s.falloff.Add(r)
		s.refs = append(s.refs, reactionRef{equation, variant, idx})

	case VariantPlog:
		r := rates.NewPlogRate()
		if err := r.SetParameters(item, s.ctx, units); err != nil {
			return rateerr.WithEquation(err, equation, "configuring rate")
		}
		if err := r.Validate(equation); err != nil {
			return err
		}
		idx := s.plog.Add(r)
		s.refs = append(s.refs, reactionRef{equation, variant, idx})

	case VariantChebyshev:
		r := rates.NewChebyshevRate()
		if err := r.SetParameters(item, s.ctx, units); err != nil {
			return rateerr.WithEquation(err, equation, "configuring rate")
		}
		if err := r.Validate(equation); err != nil {
			return err
		}
		idx := s.chebyshev.Add(r)
		s.refs = append(s.refs, reactionRef{equation, variant, idx})

	default:
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "unknown reaction type %q", variant)
	}
	return nil
}

// AddCustom registers a reaction backed by a Go-defined rate function,
// bypassing the parameter tree entirely.
func (s *Set) AddCustom(equation string, fn rates.CustomFunc) {
	idx := s.custom.Add(rates.NewCustomRateFrom(fn))
	s.refs = append(s.refs, reactionRef{equation, "custom", idx})
}

// ReactionCount reports how many reactions this mechanism holds, across
// every variant.
func (s *Set) ReactionCount() int {
	return len(s.refs)
}

// Equation returns the i'th reaction's equation string, in registration
// order.
func (s *Set) Equation(i int) string {
	return s.refs[i].equation
}

// Update broadcasts (T, P, concentrations) to every variant's MultiRate,
// letting each precompute its own T/P-only intermediates.
func (s *Set) Update(T, P float64, concentrations map[string]float64) {
	sd := evalcore.NewSharedData(T, P).WithConcentrations(concentrations)
	s.arrhenius.Update(sd)
	s.threeBody.Update(sd)
	s.falloff.Update(sd)
	s.plog.Update(sd)
	s.chebyshev.Update(sd)
	s.custom.Update(sd)
}

// Eval writes k for every reaction, in registration order, into out. out
// must have length ReactionCount(). Per-variant MultiRate.Eval results are
// gathered into scratch buffers sized once per call; the mechanism-level
// fan-in is the only place this package allocates.
func (s *Set) Eval(out []float64) error {
	if len(out) != len(s.refs) {
		return rateerr.WithEquation(rateerr.ErrInvalidState, "", "kinetics: out has length %d, want %d", len(out), len(s.refs))
	}
	arrheniusOut := make([]float64, s.arrhenius.Len())
	if err := s.arrhenius.Eval(arrheniusOut); err != nil {
		return err
	}
	threeBodyOut := make([]float64, s.threeBody.Len())
	if err := s.threeBody.Eval(threeBodyOut); err != nil {
		return err
	}
	falloffOut := make([]float64, s.falloff.Len())
	if err := s.falloff.Eval(falloffOut); err != nil {
		return err
	}
	plogOut := make([]float64, s.plog.Len())
	if err := s.plog.Eval(plogOut); err != nil {
		return err
	}
	chebyshevOut := make([]float64, s.chebyshev.Len())
	if err := s.chebyshev.Eval(chebyshevOut); err != nil {
		return err
	}
	customOut := make([]float64, s.custom.Len())
	if err := s.custom.Eval(customOut); err != nil {
		return err
	}

	for i, ref := range s.refs {
		switch ref.variant {
		case VariantElementary:
			out[i] = arrheniusOut[ref.index]
		case VariantThreeBody:
			out[i] = threeBodyOut[ref.index]
		case VariantFalloff:
			out[i] = falloffOut[ref.index]
		case VariantPlog:
			out[i] = plogOut[ref.index]
		case VariantChebyshev:
			out[i] = chebyshevOut[ref.index]
		case "custom":
			out[i] = customOut[ref.index]
		}
	}
	return nil
}
