package rates

import (
	"math"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
	"github.com/sarat-asymmetrica/chemkit/internal/obslog"
	"github.com/sarat-asymmetrica/chemkit/internal/paramtree"
	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// ChebyshevRate represents log10(k) as a bivariate Chebyshev polynomial
// expansion over normalized, reciprocal temperature and log-pressure,
// valid on [TMin,TMax] x [PMin,PMax]. Outside that domain, the normalized
// coordinates are clamped to [-1,1] rather than extrapolated (§4.6).
type ChebyshevRate struct {
	TMin, TMax float64
	PMin, PMax float64
	Coeffs     [][]float64 // Coeffs[i][j] for T_i(Ttilde) * T_j(Ptilde)

	rowScratch []float64 // len(Coeffs); reused across Eval calls, never reallocated on the hot path

	link evalcore.Link[ChebyshevRate]
}

// NewChebyshevRate returns an empty (unset) rate.
func NewChebyshevRate() ChebyshevRate {
	return ChebyshevRate{}
}

// SetParameters reads temperature-range, pressure-range, and a `data`
// coefficient matrix. units is used only to rescale the fit's implied
// concentration units into SI via a log10-additive shift on Coeffs[0][0].
func (r *ChebyshevRate) SetParameters(node *paramtree.Node, ctx paramtree.UnitContext, units paramtree.RateUnits) error {
	if node == nil || node.IsNull() {
		return nil
	}
	trNode, ok := node.Get("temperature-range")
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev rate missing temperature-range")
	}
	if trNode.Len() != 2 {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "temperature-range must have exactly two entries")
	}
	tMin, ok := trNode.At(0).Float()
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "temperature-range entries must be numeric")
	}
	tMax, ok := trNode.At(1).Float()
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "temperature-range entries must be numeric")
	}

	prNode, ok := node.Get("pressure-range")
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev rate missing pressure-range")
	}
	if prNode.Len() != 2 {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "pressure-range must have exactly two entries")
	}
	pMinRaw, pMinUnit, err := paramtree.ReadQuantity(prNode.At(0), ctx.Pressure)
	if err != nil {
		return err
	}
	pMin, err := paramtree.PressureToPa(pMinRaw, pMinUnit)
	if err != nil {
		return err
	}
	pMaxRaw, pMaxUnit, err := paramtree.ReadQuantity(prNode.At(1), ctx.Pressure)
	if err != nil {
		return err
	}
	pMax, err := paramtree.PressureToPa(pMaxRaw, pMaxUnit)
	if err != nil {
		return err
	}

	dataNode, ok := node.Get("data")
	if !ok {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev rate missing data")
	}
	rows := dataNode.Len()
	if rows == 0 {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev data must have at least one row")
	}
	coeffs := make([][]float64, rows)
	cols := -1
	for i := 0; i < rows; i++ {
		rowNode := dataNode.At(i)
		n := rowNode.Len()
		if cols == -1 {
			cols = n
		} else if n != cols {
			return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev data rows must all have the same length")
		}
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			v, ok := rowNode.At(j).Float()
			if !ok {
				return rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "Chebyshev coefficient [%d][%d] must be numeric", i, j)
			}
			row[j] = v
		}
		coeffs[i] = row
	}

	factor, err := paramtree.ConvertRateConstant(1.0, units, paramtree.DefaultRateUnits(units.Order))
	if err != nil {
		return err
	}
	coeffs[0][0] += math.Log10(factor)

	r.TMin, r.TMax, r.PMin, r.PMax, r.Coeffs = tMin, tMax, pMin, pMax, coeffs
	r.rowScratch = make([]float64, rows)
	tMin2, tMax2, pMin2, pMax2 := tMin, tMax, pMin, pMax
	return evalcore.Propagate(&r.link, func(cp *ChebyshevRate) {
		cp.TMin, cp.TMax, cp.PMin, cp.PMax, cp.Coeffs = tMin2, tMax2, pMin2, pMax2, coeffs
		cp.rowScratch = make([]float64, rows)
	})
}

// GetParameters emits temperature-range, pressure-range, and data. The
// log10(factor) shift SetParameters folded into Coeffs[0][0] is subtracted
// again, so the emitted coefficients are expressed in the given units and
// re-reading them under those same units reproduces the stored rate.
func (r *ChebyshevRate) GetParameters(ctx paramtree.UnitContext, units paramtree.RateUnits) (*paramtree.Node, error) {
	node := paramtree.NewMapping()
	if r.Coeffs == nil {
		return node, nil
	}
	factor, err := paramtree.ConvertRateConstant(1.0, units, paramtree.DefaultRateUnits(units.Order))
	if err != nil {
		return nil, err
	}
	shift := math.Log10(factor)
	tr := paramtree.NewSequence()
	tr.Append(paramtree.NewScalar(r.TMin))
	tr.Append(paramtree.NewScalar(r.TMax))
	node.Set("temperature-range", tr)

	pr := paramtree.NewSequence()
	pMinOut, err := paramtree.PaToPressure(r.PMin, ctx.Pressure)
	if err != nil {
		return nil, err
	}
	pMaxOut, err := paramtree.PaToPressure(r.PMax, ctx.Pressure)
	if err != nil {
		return nil, err
	}
	pr.Append(paramtree.NewScalar(pMinOut))
	pr.Append(paramtree.NewScalar(pMaxOut))
	node.Set("pressure-range", pr)

	data := paramtree.NewSequence()
	for i, row := range r.Coeffs {
		rowNode := paramtree.NewSequence()
		for j, v := range row {
			if i == 0 && j == 0 {
				v -= shift
			}
			rowNode.Append(paramtree.NewScalar(v))
		}
		data.Append(rowNode)
	}
	node.Set("data", data)
	return node, nil
}

// Validate requires a non-degenerate, ordered domain.
func (r *ChebyshevRate) Validate(equation string) error {
	if r.Coeffs == nil {
		return nil
	}
	if r.TMin >= r.TMax {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "Chebyshev temperature-range must be increasing")
	}
	if r.PMin >= r.PMax {
		return rateerr.WithEquation(rateerr.ErrInvalidParameter, equation, "Chebyshev pressure-range must be increasing")
	}
	return nil
}

// clenshaw evaluates sum_k coeffs[k] * T_k(x) by Clenshaw recurrence,
// avoiding an explicit Chebyshev-polynomial basis array.
func clenshaw(coeffs []float64, x float64) float64 {
	var bNext, bNextNext float64
	for k := len(coeffs) - 1; k >= 1; k-- {
		b := coeffs[k] + 2*x*bNext - bNextNext
		bNextNext = bNext
		bNext = b
	}
	return coeffs[0] + x*bNext - bNextNext
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}

// PrepareBatch logs a domain-clamped diagnostic, once per Update rather
// than once per Eval call, when (T,P) falls outside the fit's domain —
// Eval still clamps silently per §4.6, this just surfaces it off the hot
// path. It also lazily (re)sizes rowScratch, covering rates built by
// struct literal rather than SetParameters.
func (r *ChebyshevRate) PrepareBatch(sd evalcore.SharedData) {
	if r.Coeffs == nil {
		return
	}
	if len(r.rowScratch) != len(r.Coeffs) {
		r.rowScratch = make([]float64, len(r.Coeffs))
	}
	if sd.T < r.TMin || sd.T > r.TMax {
		obslog.L().Debugw("chebyshev rate clamped: T outside fit domain",
			"kind", rateerr.ErrDomainClamped.Error(), "t", sd.T, "t_min", r.TMin, "t_max", r.TMax)
	}
	log10P := sd.LogP / math.Ln10
	log10PMin, log10PMax := math.Log10(r.PMin), math.Log10(r.PMax)
	if log10P < log10PMin || log10P > log10PMax {
		obslog.L().Debugw("chebyshev rate clamped: P outside fit domain",
			"kind", rateerr.ErrDomainClamped.Error(), "p", sd.P, "p_min", r.PMin, "p_max", r.PMax)
	}
}

// Eval normalizes (T,P) to [-1,1]^2, clamping outside the fit domain, then
// evaluates the bivariate expansion via nested Clenshaw recurrence: first
// collapsing each row over Ptilde, then collapsing the row results over
// Ttilde. rowScratch is reused across calls rather than reallocated; it is
// only (re)sized here as a fallback for a rate never routed through
// PrepareBatch (e.g. built by struct literal in a test).
func (r ChebyshevRate) Eval(sd evalcore.SharedData) float64 {
	if r.Coeffs == nil {
		return math.NaN()
	}
	recipTMin, recipTMax := 1/r.TMin, 1/r.TMax
	tTilde := clampUnit((2*sd.RecipT - recipTMin - recipTMax) / (recipTMax - recipTMin))

	log10PMin, log10PMax := math.Log10(r.PMin), math.Log10(r.PMax)
	log10P := sd.LogP / math.Ln10
	pTilde := clampUnit((2*log10P - log10PMin - log10PMax) / (log10PMax - log10PMin))

	rowResults := r.rowScratch
	if len(rowResults) != len(r.Coeffs) {
		rowResults = make([]float64, len(r.Coeffs))
	}
	for i, row := range r.Coeffs {
		rowResults[i] = clenshaw(row, pTilde)
	}
	log10K := clenshaw(rowResults, tTilde)
	return math.Pow(10, log10K)
}

// LinkEvaluator attaches this rate handle to ev at idx.
func (r *ChebyshevRate) LinkEvaluator(idx int, ev *evalcore.MultiRate[ChebyshevRate]) {
	r.link.LinkTo(ev, idx)
}

// ReleaseEvaluator detaches the rate from its evaluator.
func (r *ChebyshevRate) ReleaseEvaluator() {
	r.link.Release()
}

// Index returns the linked index, or invalid-state when unlinked.
func (r *ChebyshevRate) Index() (int, error) {
	return r.link.Index()
}
