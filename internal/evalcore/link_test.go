package evalcore

import "testing"

func TestLinkIndexWhenUnlinked(t *testing.T) {
	var l Link[constRate]
	if l.IsLinked() {
		t.Fatalf("fresh Link should not be linked")
	}
	if _, err := l.Index(); err == nil {
		t.Fatalf("expected error for unlinked Index()")
	}
}

func TestPropagateMutatesEvaluatorsCopy(t *testing.T) {
	m := NewMultiRate[constRate]()
	idx := m.Add(constRate{k: 1})

	var l Link[constRate]
	l.LinkTo(m, idx)

	if err := Propagate(&l, func(r *constRate) { r.k = 42 }); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	stored, err := m.Rate(idx)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if stored.k != 42 {
		t.Fatalf("evaluator's copy k = %v, want 42", stored.k)
	}
}

func TestPropagateNoOpWhenUnlinked(t *testing.T) {
	var l Link[constRate]
	called := false
	if err := Propagate(&l, func(r *constRate) { called = true }); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if called {
		t.Fatalf("mutate should not run on an unlinked Link")
	}
}

func TestLinkReleaseIsIdempotent(t *testing.T) {
	m := NewMultiRate[constRate]()
	idx := m.Add(constRate{k: 1})
	var l Link[constRate]
	l.LinkTo(m, idx)
	l.Release()
	l.Release()
	if l.IsLinked() {
		t.Fatalf("Link should be unlinked after Release")
	}
}
