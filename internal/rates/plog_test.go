package rates

import (
	"math"
	"testing"

	"github.com/sarat-asymmetrica/chemkit/internal/evalcore"
)

func buildPlog() PlogRate {
	r := NewPlogRate()
	r.entries = []PlogEntry{
		{Pressure: 1e3, LogP: math.Log10(1e3), Channels: []ArrheniusTriple{{A: 1.0}}},
		{Pressure: 1e5, LogP: math.Log10(1e5), Channels: []ArrheniusTriple{{A: 100.0}}},
	}
	return r
}

func TestPlogInterpolatesLogLinearly(t *testing.T) {
	r := buildPlog()
	// P = 1e4 Pa sits exactly at the log-midpoint between the breakpoints.
	sd := evalcore.NewSharedData(1000, 1e4)
	k := r.Eval(sd)
	almostEqual(t, k, 10.0, 1e-9, "interpolated k")
}

func TestPlogClampsBelowLowestBreakpoint(t *testing.T) {
	r := buildPlog()
	sd := evalcore.NewSharedData(1000, 1.0)
	k := r.Eval(sd)
	almostEqual(t, k, 1.0, 1e-12, "k clamped to lowest breakpoint")
}

func TestPlogClampsAboveHighestBreakpoint(t *testing.T) {
	r := buildPlog()
	sd := evalcore.NewSharedData(1000, 1e9)
	k := r.Eval(sd)
	almostEqual(t, k, 100.0, 1e-12, "k clamped to highest breakpoint")
}

func TestPlogCombinesDuplicatePressures(t *testing.T) {
	entries := []PlogEntry{
		{Pressure: 1e3, LogP: math.Log10(1e3), Channels: []ArrheniusTriple{{A: 1.0}}},
		{Pressure: 1e3, LogP: math.Log10(1e3), Channels: []ArrheniusTriple{{A: 4.0}}},
	}
	combined := combinePlogEntries(entries)
	if len(combined) != 1 {
		t.Fatalf("expected duplicate pressures to merge into one entry, got %d", len(combined))
	}
	k := combined[0].evalK(0, 0)
	almostEqual(t, k, 5.0, 1e-12, "summed channel k")
}

func TestPlogValidateRejectsNonIncreasingPressures(t *testing.T) {
	r := NewPlogRate()
	r.entries = []PlogEntry{
		{Pressure: 1e5, LogP: 5},
		{Pressure: 1e3, LogP: 3},
	}
	if err := r.Validate("A + B <=> C + D"); err == nil {
		t.Fatalf("expected error for non-increasing pressures")
	}
}
