package rates

import (
	"math"
	"sort"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/obslog"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// PlogEntry is one pressure breakpoint. Channels holds one Arrhenius
// expression per input line sharing this pressure (§4.4 requires their
// contributions summed, not their logs averaged); the common case has a
// single channel. Pressure is stored in Pa; LogP is cached at configure
// time so Eval never calls math.Log10 on the hot path.
type PlogEntry struct {
	Pressure float64
	LogP     float64
	Channels []ArrheniusTriple
}

// evalK sums every channel's Arrhenius expression at (logT, recipT).
func (e PlogEntry) evalK(logT, recipT float64) float64 {
	var k float64
	for _, c := range e.Channels {
		k += c.Eval(logT, recipT)
	}
	return k
}

// PlogRate is the logarithmic-pressure-interpolation variant: a sorted
// list of Arrhenius rate expressions at specific pressures, with log(k)
// interpolated linearly in log(P) between the two bracketing entries.
// Entries sharing a pressure are summed before interpolation (§4.4).
type PlogRate struct {
	entries []PlogEntry

	link evalcore.Link[PlogRate]
}

// NewPlogRate returns an empty (unset) rate.
func NewPlogRate() PlogRate {
	return PlogRate{}
}

// SetParameters reads a `rate-constants` sequence of {P, A, b, Ea} nodes.
// units.Order gives the order shared by every breakpoint; Plog does not
// support per-breakpoint orders.
func (r *PlogRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
	if node == nil || node.IsNull() {
		return nil
	}
	seq, ok := node.Get("rate-constants")
	if !ok {
		return nil
	}
	entries := make([]PlogEntry, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		item := seq.At(i)
		pNode, ok := item.Get("P")
		if !ok {
			return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Plog entry %d missing P", i)
		}
		pRaw, pUnit, err := paramtree.ReadQuantity(pNode, ctx.Pressure)
		if err != nil {
			return err
		}
		pPa, err := paramtree.PressureToPa(pRaw, pUnit)
		if err != nil {
			return err
		}
		triple, err := readTriple(item, ctx, units)
		if err != nil {
			return err
		}
		entries = append(entries, PlogEntry{Pressure: pPa, LogP: math.Log10(pPa), Channels: []ArrheniusTriple{triple}})
	}
	combined := combinePlogEntries(entries)
	r.entries = combined
	return evalcore.Propagate(&r.link, func(cp *PlogRate) { cp.entries = combined })
}

// combinePlogEntries sorts by pressure and merges the channel lists of any
// entries sharing the same breakpoint.
func combinePlogEntries(entries []PlogEntry) []PlogEntry {
	sorted := make([]PlogEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pressure < sorted[j].Pressure })

	out := make([]PlogEntry, 0, len(sorted))
	for _, e := range sorted {
		if n := len(out); n > 0 && out[n-1].Pressure == e.Pressure {
			out[n-1].Channels = append(out[n-1].Channels, e.Channels...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// GetParameters emits the rate-constants sequence, one item per channel.
func (r *PlogRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	node := paramtree.NewMapping()
	if len(r.entries) == 0 {
		return node, nil
	}
	seq := paramtree.NewSequence()
	for _, e := range r.entries {
		pOut, err := paramtree.PaToPressure(e.Pressure, ctx.Pressure)
		if err != nil {
			return nil, err
		}
		for _, c := range e.Channels {
			item, err := writeTriple(c, ctx, units)
			if err != nil {
				return nil, err
			}
			item.Set("P", paramtree.NewScalar(pOut))
			seq.Append(item)
		}
	}
	node.Set("rate-constants", seq)
	return node, nil
}

// Validate requires strictly distinct pressures after combining duplicates.
func (r *PlogRate) Validate(equation string) error {
	for i := 1; i < len(r.entries); i++ {
		if r.entries[i].Pressure <= r.entries[i-1].Pressure {
			return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "Plog pressures must be strictly increasing after merging duplicates")
		}
	}
	return nil
}

// PrepareBatch logs a domain-clamped diagnostic, once per Update rather
// than once per Eval call, when P falls outside the configured breakpoint
// range. Eval still clamps silently to the nearest endpoint per §4.4;
// this just surfaces it off the hot path.
func (r *PlogRate) PrepareBatch(sd evalcore.SharedData) {
	n := len(r.entries)
	if n < 2 {
		return
	}
	logP := sd.LogP / math.Ln10
	if logP < r.entries[0].LogP || logP > r.entries[n-1].LogP {
		obslog.L().Debugw("plog rate clamped: P outside breakpoint range",
			"kind", rateerr.ErrDomainClamped.Error(),
			"p_pa", sd.P, "range_low_pa", r.entries[0].Pressure, "range_high_pa", r.entries[n-1].Pressure)
	}
}

// Eval interpolates log(k) linearly in log(P) between the two bracketing
// entries (each entry's k being the sum of its channels), clamping to the
// nearest endpoint outside the configured pressure range (§4.4).
func (r PlogRate) Eval(sd evalcore.SharedData) float64 {
	n := len(r.entries)
	if n == 0 {
		return math.NaN()
	}
	logT, recipT := sd.LogT, sd.RecipT
	if n == 1 {
		return r.entries[0].evalK(logT, recipT)
	}

	logP := sd.LogP / math.Ln10
	if logP <= r.entries[0].LogP {
		return r.entries[0].evalK(logT, recipT)
	}
	if logP >= r.entries[n-1].LogP {
		return r.entries[n-1].evalK(logT, recipT)
	}

	hi := sort.Search(n, func(i int) bool { return r.entries[i].LogP >= logP })
	lo := hi - 1

	logKLo := math.Log(r.entries[lo].evalK(logT, recipT))
	logKHi := math.Log(r.entries[hi].evalK(logT, recipT))
	frac := (logP - r.entries[lo].LogP) / (r.entries[hi].LogP - r.entries[lo].LogP)
	return math.Exp(logKLo + frac*(logKHi-logKLo))
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *PlogRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[PlogRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator.
func (r *PlogRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *PlogRate) Index() (int, error) {
	return r.link.Index()
}
