package glottis

import (
	"math"
	"testing"
)

func TestNewComputesFiniteCoefficients(t *testing.T) {
	g := New(44100, 160, 0.6)
	if math.IsNaN(g.alpha) || math.IsNaN(g.e0) || math.IsNaN(g.omega) {
		t.Fatalf("LF coefficients contain NaN: alpha=%v e0=%v omega=%v", g.alpha, g.e0, g.omega)
	}
}

func TestComputeStaysBounded(t *testing.T) {
	g := New(44100, 160, 0.6)
	for i := 0; i < 44100; i++ {
		out := g.Compute(0)
		if math.IsNaN(out) || math.Abs(out) > 10 {
			t.Fatalf("sample %d out of bounds: %v", i, out)
		}
	}
}

func TestComputeIsPeriodic(t *testing.T) {
	// Seed the noise source identically before each period so the only
	// difference between periods is the deterministic LF waveform.
	g := New(44100, 100, 0.6)
	period := int(44100.0 / 100.0)

	g.SeedNoise(0.42)
	first := make([]float64, period)
	for i := range first {
		first[i] = g.Compute(0)
	}

	g.SeedNoise(0.42)
	second := make([]float64, period)
	for i := range second {
		second[i] = g.Compute(0)
	}

	for i := range first {
		if math.Abs(first[i]-second[i]) > 1e-9 {
			t.Fatalf("sample %d not periodic: %v != %v", i, first[i], second[i])
		}
	}
}

func TestTensenessOneSuppressesAspiration(t *testing.T) {
	g := New(44100, 160, 1.0)
	g.SeedNoise(1.0)
	// with tenseness 1.0, (1 - sqrt(tenseness)) == 0, so aspiration is exactly zero
	// regardless of the noise draw; confirm by comparing two differently seeded instances.
	t1 := g.Compute(0)

	g2 := New(44100, 160, 1.0)
	g2.SeedNoise(0.1234)
	t2 := g2.Compute(0)

	if t1 != t2 {
		t.Fatalf("tenseness=1.0 should be noise-independent: %v != %v", t1, t2)
	}
}

func TestRdClamping(t *testing.T) {
	// tenseness outside [0,1] still must not blow up Rd past its clamp range.
	g := New(44100, 160, -5)
	out := g.Compute(0)
	if math.IsNaN(out) {
		t.Fatalf("negative tenseness produced NaN")
	}
	g2 := New(44100, 160, 5)
	out2 := g2.Compute(0)
	if math.IsNaN(out2) {
		t.Fatalf("tenseness > 1 produced NaN")
	}
}
