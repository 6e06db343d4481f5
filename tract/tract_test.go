package tract

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		SampleRate:      44100,
		N:               44,
		NoseLength:      28,
		NoseStart:       17,
		TipStart:        32,
		BladeStart:      12,
		EpiglottisStart: 6,
		LipStart:        39,
	}
}

func TestNewPopulatesAreaFromDiameter(t *testing.T) {
	tr := New(testConfig())
	for i, d := range tr.Diameters() {
		want := d * d
		if tr.a[i] != want {
			t.Fatalf("a[%d] = %v, want %v", i, tr.a[i], want)
		}
	}
}

func TestReflectionsBoundedByOne(t *testing.T) {
	tr := New(testConfig())
	tr.CalculateReflections()
	for i, r := range tr.newReflection {
		if math.Abs(r) > 1.0001 {
			t.Fatalf("new_reflection[%d] = %v, exceeds |1|", i, r)
		}
	}
}

func TestZeroAreaJunctionIsFullyReflective(t *testing.T) {
	tr := New(testConfig())
	tr.diameter[5] = 0
	tr.CalculateReflections()
	if tr.newReflection[5] != fullyReflective {
		t.Fatalf("new_reflection[5] = %v, want %v", tr.newReflection[5], fullyReflective)
	}
}

func TestReshapeIdempotentAtTarget(t *testing.T) {
	tr := New(testConfig())
	before := append([]float64(nil), tr.Diameters()...)
	tr.Reshape()
	after := tr.Diameters()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("diameter[%d] changed from %v to %v though already at target", i, before[i], after[i])
		}
	}
}

func TestReshapeMovesTowardTarget(t *testing.T) {
	tr := New(testConfig())
	tr.targetDiameter[20] = 0.0
	d0 := tr.diameter[20]
	tr.Reshape()
	d1 := tr.diameter[20]
	if !(d1 < d0) {
		t.Fatalf("diameter[20] did not move toward lower target: %v -> %v", d0, d1)
	}
}

func TestSilenceDecaysToZero(t *testing.T) {
	tr := New(testConfig())
	tr.CalculateReflections()
	for i := 0; i < 5000; i++ {
		tr.Compute(0, float64(i%2)*0.5)
	}
	energy := tr.LipOutput*tr.LipOutput + tr.NoseOutput*tr.NoseOutput
	if energy > 1e-6 {
		t.Fatalf("silence did not decay: energy=%v", energy)
	}
}

func TestPlosiveReleaseAppendsTransient(t *testing.T) {
	tr := New(testConfig())
	cfg := testConfig()

	// close the lip region
	for i := cfg.LipStart; i < cfg.N; i++ {
		tr.targetDiameter[i] = 0
	}
	for i := 0; i < 2000; i++ {
		tr.Reshape()
		tr.CalculateReflections()
	}
	if tr.pool.Size() != 0 {
		t.Fatalf("pool should still be empty before release, got %d", tr.pool.Size())
	}

	// reopen
	for i := cfg.LipStart; i < cfg.N; i++ {
		tr.targetDiameter[i] = 1.5
	}
	released := false
	for i := 0; i < 50 && !released; i++ {
		tr.Reshape()
		tr.CalculateReflections()
		if tr.pool.Size() > 0 {
			released = true
		}
	}
	if !released {
		t.Fatalf("expected a transient after lip closure reopened")
	}
}

func TestTongueShapeWritesOnlyBladeToLipRange(t *testing.T) {
	tr := New(testConfig())
	cfg := testConfig()
	before := append([]float64(nil), tr.targetDiameter...)

	tr.TongueShape(21, 2.75)

	for i, v := range tr.targetDiameter {
		if i < cfg.BladeStart || i >= cfg.LipStart {
			if v != before[i] {
				t.Fatalf("target_diameter[%d] changed outside [blade_start, lip_start): %v -> %v", i, before[i], v)
			}
		}
	}
}

func TestVelumTargetClampedToMinimum(t *testing.T) {
	tr := New(testConfig())
	tr.SetVelumTarget(0)
	if tr.VelumTarget() != minVelumTarget {
		t.Fatalf("VelumTarget() = %v, want clamped minimum %v", tr.VelumTarget(), minVelumTarget)
	}
}

func TestVelumOpeningRaisesNoseOutputRMS(t *testing.T) {
	tr := New(testConfig())
	cfg := testConfig()
	// close lips so energy has somewhere interesting to go, mirroring the nasal /m/ scenario
	for i := cfg.LipStart; i < cfg.N; i++ {
		tr.targetDiameter[i] = 0
	}
	tr.SetVelumTarget(0.01)
	for i := 0; i < 200; i++ {
		tr.Reshape()
		tr.CalculateReflections()
	}

	rmsBefore := rmsNose(tr, 2000)

	tr.SetVelumTarget(1.5)
	var lastRMS float64
	for block := 0; block < 20; block++ {
		tr.Reshape()
		tr.CalculateReflections()
		lastRMS = rmsNose(tr, 500)
	}

	if lastRMS <= rmsBefore {
		t.Fatalf("nose_output RMS did not rise: before=%v after=%v", rmsBefore, lastRMS)
	}
}

func TestNasalRMSExceedsLipRMS(t *testing.T) {
	tr := New(testConfig())
	cfg := testConfig()
	for i := cfg.LipStart; i < cfg.N; i++ {
		tr.targetDiameter[i] = 0
	}
	tr.SetVelumTarget(1.5)

	settleBlocks := int(0.2*44100) / 1024
	for b := 0; b < settleBlocks; b++ {
		tr.Reshape()
		tr.CalculateReflections()
		for i := 0; i < 1024; i++ {
			tr.Compute(0.01, float64(i%2)*0.5)
		}
	}

	tr.Reshape()
	tr.CalculateReflections()
	const probe = 2048
	var lipSumSq, noseSumSq float64
	for i := 0; i < probe; i++ {
		tr.Compute(0.01, float64(i%2)*0.5)
		lipSumSq += tr.LipOutput * tr.LipOutput
		noseSumSq += tr.NoseOutput * tr.NoseOutput
	}
	lipRMS := math.Sqrt(lipSumSq / probe)
	noseRMS := math.Sqrt(noseSumSq / probe)

	if noseRMS <= lipRMS {
		t.Fatalf("nose_output RMS (%v) did not exceed lip_output RMS (%v)", noseRMS, lipRMS)
	}
}

func rmsNose(tr *Tract, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		tr.Compute(0.01, float64(i%2)*0.5)
		sum += tr.NoseOutput * tr.NoseOutput
	}
	return math.Sqrt(sum / float64(n))
}

func TestPoolSizeNeverExceedsMax(t *testing.T) {
	tr := New(testConfig())
	for i := 0; i < 1000; i++ {
		tr.pool.Append(0)
	}
	if tr.pool.Size() > 32 {
		t.Fatalf("pool size = %d, exceeds MaxTransients", tr.pool.Size())
	}
}
