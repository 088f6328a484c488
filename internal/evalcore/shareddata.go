// Package evalcore holds the per-evaluation shared-data bundle and the
// MultiRate batch evaluator, the pieces of the core that are generic
// across rate-law variants.
package evalcore

import "math"

// SharedData is the immutable per-call bundle broadcast to every rate in
// a batch: T, P, the derived scalars every rate law needs (log T, 1/T,
// log P), and the species concentrations third-body rates weight by
// their own Efficiencies. Concentrations is shared by reference across
// every MultiRate in a mechanism, not copied per reaction, so building it
// once per (T, P, concentration snapshot) keeps evaluation allocation-free
// on the hot path; only the map lookups inside a given rate's own
// Efficiencies vary per reaction.
type SharedData struct {
	T              float64
	P              float64
	LogT           float64
	RecipT         float64
	LogP           float64
	Concentrations map[string]float64
}

// NewSharedData derives LogT, RecipT, and LogP from T and P. Concentrations
// is nil; set it with WithConcentrations before evaluating any three-body
// or falloff rate.
func NewSharedData(T, P float64) SharedData {
	return SharedData{
		T:      T,
		P:      P,
		LogT:   math.Log(T),
		RecipT: 1 / T,
		LogP:   math.Log(P),
	}
}

// WithConcentrations returns a copy of sd with its species concentration
// snapshot set. The map itself is not copied; callers must not mutate it
// while an evaluation batch is in flight.
func (sd SharedData) WithConcentrations(c map[string]float64) SharedData {
	sd.Concentrations = c
	return sd
}
