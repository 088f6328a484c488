package evalcore

import "github.com/sarat-asymmetrica/chemkit/internal/rateerr"

// Link is the non-owning (rate, index) back-reference a rate handle uses
// to keep a MultiRate's stored copy in sync. The evaluator owns the
// authoritative copy; Link only knows how to reach it. Its lifetime is
// bounded by the evaluator it points at — the evaluator must either
// outlive the rate or the rate must be unlinked first (§5).
type Link[T Evaluable] struct {
	eval   *MultiRate[T]
	index  int
	linked bool
}

// LinkTo attaches the link to ev at idx. Re-linking simply overwrites the
// previous target; it does not touch the old evaluator.
func (l *Link[T]) LinkTo(ev *MultiRate[T], idx int) {
	l.eval = ev
	l.index = idx
	l.linked = true
}

// Release detaches the link. Idempotent: releasing an already-unlinked
// Link is a no-op.
func (l *Link[T]) Release() {
	l.eval = nil
	l.index = 0
	l.linked = false
}

// IsLinked reports whether the link currently targets an evaluator.
func (l *Link[T]) IsLinked() bool {
	return l.linked
}

// Index returns the stored index, or ErrInvalidState when unlinked.
func (l *Link[T]) Index() (int, error) {
	if !l.linked {
		return 0, rateerr.WithEquation(rateerr.ErrInvalidState, "", "rate is not linked to an evaluator")
	}
	return l.index, nil
}

// Propagate applies mutate to the evaluator's stored copy, so a setter
// called on the rate handle and the identical setter forwarded here leave
// both observably equal. It is a no-op when unlinked.
func Propagate[T Evaluable](l *Link[T], mutate func(*T)) error {
	if !l.linked {
		return nil
	}
	cur, err := l.eval.Rate(l.index)
	if err != nil {
		return err
	}
	mutate(&cur)
	return l.eval.Replace(l.index, cur)
}
