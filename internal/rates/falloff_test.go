package rates

import (
	"testing"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
)

func buildFalloff(withTroe bool) FalloffRate {
	r := NewFalloffRate()
	r.Low = ArrheniusTriple{A: 2.0, B: 0, ER: 0}
	r.High = ArrheniusTriple{A: 10.0, B: 0, ER: 0}
	r.Efficiencies = Efficiencies{}
	if withTroe {
		r.Troe = &TroeParams{A: 0.8, T3: 100.0, T1: 2000.0}
	}
	return r
}

func TestFalloffTroeBlend(t *testing.T) {
	r := buildFalloff(true)
	sd := evalcore.NewSharedData(1000, 101325).WithConcentrations(map[string]float64{"X": 0.05})
	r.PrepareBatch(sd)
	k := r.Eval(sd)
	almostEqual(t, k, 0.07933157409458107, 1e-9, "k")
}

func TestFalloffLindemannWhenTroeAbsent(t *testing.T) {
	r := buildFalloff(false)
	sd := evalcore.NewSharedData(1000, 101325).WithConcentrations(map[string]float64{"X": 0.05})
	k := r.Eval(sd)
	pr := 2.0 * 0.05 / 10.0
	want := 10.0 * (pr / (1 + pr))
	almostEqual(t, k, want, 1e-12, "Lindemann k")
}

// The Lindemann form (no Troe blend, F==1 identically) makes the two
// falloff limits exact, which is what these two cases check; with a Troe
// blend present F tends to Fcent^(1/(1+(1/0.14)^2)) at either end, close
// to but not equal to 1 (see TestFalloffTroeBlend for a blended value at a
// fixed point instead).
func TestFalloffLowPressureLimit(t *testing.T) {
	r := buildFalloff(false)
	sd := evalcore.NewSharedData(1000, 101325).WithConcentrations(map[string]float64{"X": 1e-9})
	k := r.Eval(sd)
	want := 2.0 * 1e-9 // k0 * [M]
	almostEqual(t, k, want, 1e-6, "k -> k0*[M] as [M]->0")
}

func TestFalloffHighPressureLimit(t *testing.T) {
	r := buildFalloff(false)
	sd := evalcore.NewSharedData(1000, 101325).WithConcentrations(map[string]float64{"X": 1e9})
	k := r.Eval(sd)
	almostEqual(t, k, 10.0, 1e-6, "k -> k_inf as [M]->infinity")
}

func TestFalloffValidateRejectsNegativeLimits(t *testing.T) {
	r := buildFalloff(false)
	r.Low.A = -1
	if err := r.Validate("H + O2 (+M) <=> HO2 (+M)"); err == nil {
		t.Fatalf("expected error for negative low-pressure A")
	}
}
