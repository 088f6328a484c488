package evalcore

import (
	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// Evaluable is the contract every rate-law variant's value type
// satisfies: given the shared per-call data, return k. A value receiver
// is required so T itself (not *T) implements Evaluable, letting
// MultiRate store rates by value and iterate the slice with no pointer
// chasing on the hot path.
type Evaluable interface {
	Eval(SharedData) float64
}

// BatchPreparer is implemented by variants with per-call intermediates
// that depend only on T or P (Troe's Fcent, for instance). MultiRate
// calls it, via a pointer to the stored element, once per Update so the
// work isn't repeated if Eval is invoked more than once per batch.
type BatchPreparer interface {
	PrepareBatch(SharedData)
}

// MultiRate owns a dense, homogeneous batch of one rate-law variant. It
// is not safe for concurrent mutation and evaluation (see §5 of the
// design): callers serialize Add/Replace/Update against Eval themselves.
type MultiRate[T Evaluable] struct {
	rates []T
	data  SharedData
}

// NewMultiRate returns an empty evaluator for rate-law value type T.
func NewMultiRate[T Evaluable]() *MultiRate[T] {
	return &MultiRate[T]{}
}

// Add appends a rate and returns its index within this evaluator.
func (m *MultiRate[T]) Add(r T) int {
	m.rates = append(m.rates, r)
	return len(m.rates) - 1
}

// Replace swaps the rate stored at idx, used both directly and as the
// propagation target of a Link mutation.
func (m *MultiRate[T]) Replace(idx int, r T) error {
	if idx < 0 || idx >= len(m.rates) {
		return errors.Wrapf(rateerr.ErrInvalidState, "multirate: index %d out of range [0,%d)", idx, len(m.rates))
	}
	m.rates[idx] = r
	return nil
}

// Rate returns a copy of the rate stored at idx.
func (m *MultiRate[T]) Rate(idx int) (T, error) {
	var zero T
	if idx < 0 || idx >= len(m.rates) {
		return zero, errors.Wrapf(rateerr.ErrInvalidState, "multirate: index %d out of range [0,%d)", idx, len(m.rates))
	}
	return m.rates[idx], nil
}

// Len reports how many rates this evaluator holds.
func (m *MultiRate[T]) Len() int {
	return len(m.rates)
}

// Update caches sd for the next Eval call and gives every rate that
// implements BatchPreparer a chance to precompute T/P-only intermediates.
func (m *MultiRate[T]) Update(sd SharedData) {
	m.data = sd
	for i := range m.rates {
		if p, ok := any(&m.rates[i]).(BatchPreparer); ok {
			p.PrepareBatch(sd)
		}
	}
}

// Eval writes k for every rate, in index order, into out. out must have
// length Len(). No allocations occur on this path.
func (m *MultiRate[T]) Eval(out []float64) error {
	if len(out) != len(m.rates) {
		return errors.Wrapf(rateerr.ErrInvalidState, "multirate: out has length %d, want %d", len(out), len(m.rates))
	}
	for i, r := range m.rates {
		out[i] = r.Eval(m.data)
	}
	return nil
}
