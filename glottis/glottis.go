// Package glottis generates one Liljencrants-Fant glottal-flow sample at a
// time, plus tenseness-modulated aspiration noise, given a fundamental
// frequency and a tenseness in [0, 1].
package glottis

import "math"

const (
	rdMin = 0.5
	rdMax = 2.7
)

// Glottis holds the LF waveform state: fundamental frequency, tenseness,
// the derived shape coefficients, and the phase accumulator.
type Glottis struct {
	Freq      float64
	Tenseness float64

	waveformLength float64
	timeInWaveform float64
	samplePeriod   float64

	alpha   float64
	e0      float64
	epsilon float64
	shift   float64
	delta   float64
	te      float64
	omega   float64

	noise *noiseSource
}

// New builds a Glottis for the given sample rate and initial frequency and
// tenseness, and computes the initial LF coefficients.
func New(sampleRate, defaultFreq, defaultTenseness float64) *Glottis {
	g := &Glottis{
		Freq:         defaultFreq,
		Tenseness:    defaultTenseness,
		samplePeriod: 1.0 / sampleRate,
		noise:        newNoiseSource(),
	}
	g.setupWaveform()
	return g
}

// SeedNoise sets an explicit seed on the aspiration noise source, for
// bit-reproducible output across runs.
func (g *Glottis) SeedNoise(seed float64) {
	g.noise.Seed(seed)
}

// setupWaveform rebuilds the LF coefficients from the current Tenseness,
// following the Rd-parameterized derivation in spec.md §4.2.
func (g *Glottis) setupWaveform() {
	g.waveformLength = 1.0 / g.Freq

	rd := 3.0 * (1.0 - g.Tenseness)
	if rd < rdMin {
		rd = rdMin
	}
	if rd > rdMax {
		rd = rdMax
	}

	ra := -0.01 + 0.048*rd
	rk := 0.224 + 0.118*rd
	rg := (rk / 4.0) * (0.5 + 1.2*rk) / (0.11*rd - ra*(0.5+1.2*rk))

	ta := ra
	tp := 1.0 / (2.0 * rg)
	te := tp + tp*rk

	g.epsilon = 1.0 / ta
	g.shift = math.Exp(-g.epsilon * (1.0 - te))
	g.delta = 1.0 - g.shift

	rhsIntegral := (1.0/g.epsilon)*(g.shift-1.0) + (1.0-te)*g.shift
	rhsIntegral /= g.delta
	lowerIntegral := -(te-tp)/2.0 + rhsIntegral
	upperIntegral := -lowerIntegral

	g.omega = math.Pi / tp
	s := math.Sin(g.omega * te)

	y := -math.Pi * s * upperIntegral / (tp * 2.0)
	g.alpha = math.Log(y) / (tp/2.0 - te)
	g.e0 = -1.0 / (s * math.Exp(g.alpha*te))

	g.te = te
}

// Compute advances the waveform by one sample period and returns the
// summed LF output plus aspiration noise. lambda is accepted for interface
// symmetry with Tract.Compute but does not affect the glottal source.
func (g *Glottis) Compute(lambda float64) float64 {
	const intensity = 1.0

	g.timeInWaveform += g.samplePeriod
	if g.timeInWaveform > g.waveformLength {
		g.timeInWaveform -= g.waveformLength
		g.setupWaveform()
	}

	t := g.timeInWaveform / g.waveformLength

	var out float64
	if t > g.te {
		out = (-math.Exp(-g.epsilon*(t-g.te)) + g.shift) / g.delta
	} else {
		out = g.e0 * math.Exp(g.alpha*t) * math.Sin(g.omega*t)
	}

	noise := g.noise.Sample()
	aspiration := intensity * (1.0 - math.Sqrt(math.Max(g.Tenseness, 0))) * 0.3 * noise

	return out + aspiration*0.2
}
