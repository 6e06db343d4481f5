// Package voc is the orchestrator: it owns one Glottis and one Tract, runs
// the per-block reshape + reflection recompute and the per-sample
// two-half-step inner loop, and exposes the articulator setters and
// sample-pull operations external collaborators (demo drivers, etc.) use.
package voc

import (
	"errors"
	"fmt"

	"github.com/pinktrombone/trmgo/glottis"
	"github.com/pinktrombone/trmgo/tract"
)

// Config carries the construction parameters from spec.md §6. All fields
// are required; Defaults returns the concrete scenario values used
// throughout spec.md §8 (sr=44100, chunk=1024, n=44, nose_length=28,
// nose_start=17, tip_start=32, blade_start=12, epiglottis_start=6,
// lip_start=39).
type Config struct {
	SampleRate        float64
	Chunk             int
	VocalOutputScaler float64
	DefaultFreq       float64
	DefaultTenseness  float64
	N                 int
	NoseLength        int
	NoseStart         int
	TipStart          int
	BladeStart        int
	EpiglottisStart   int
	LipStart          int
}

// Defaults returns the construction parameters used by spec.md §8's
// concrete scenarios.
func Defaults() Config {
	return Config{
		SampleRate:        44100,
		Chunk:             1024,
		VocalOutputScaler: 0.125,
		DefaultFreq:       160,
		DefaultTenseness:  0.6,
		N:                 44,
		NoseLength:        28,
		NoseStart:         17,
		TipStart:          32,
		BladeStart:        12,
		EpiglottisStart:   6,
		LipStart:          39,
	}
}

var (
	// ErrBadTopology is wrapped with the offending detail when Config's
	// index ordering invariant (0 <= epiglottis_start < blade_start <
	// nose_start, tip_start, lip_start < n) does not hold.
	ErrBadTopology = errors.New("voc: invalid tract topology")
)

func (c Config) validate() error {
	if !(0 <= c.EpiglottisStart && c.EpiglottisStart < c.BladeStart &&
		c.BladeStart < c.NoseStart && c.NoseStart < c.N &&
		c.BladeStart < c.TipStart && c.TipStart < c.N &&
		c.BladeStart < c.LipStart && c.LipStart < c.N) {
		return fmt.Errorf("%w: need 0 <= epiglottis_start(%d) < blade_start(%d) < {nose_start(%d), tip_start(%d), lip_start(%d)} < n(%d)",
			ErrBadTopology, c.EpiglottisStart, c.BladeStart, c.NoseStart, c.TipStart, c.LipStart, c.N)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrBadTopology, c.SampleRate)
	}
	if c.Chunk <= 0 {
		return fmt.Errorf("%w: chunk must be positive, got %d", ErrBadTopology, c.Chunk)
	}
	return nil
}

// Voc is the glottis+tract orchestrator described in spec.md §4.4.
type Voc struct {
	cfg     Config
	glottis *glottis.Glottis
	tract   *tract.Tract

	buf     []float64
	counter int
}

// New validates cfg and builds a Voc. It is the only fallible operation
// in the core's public surface; every runtime operation after
// construction is infallible per spec.md §7.
func New(cfg Config) (*Voc, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	v := &Voc{
		cfg:     cfg,
		glottis: glottis.New(cfg.SampleRate, cfg.DefaultFreq, cfg.DefaultTenseness),
		tract: tract.New(tract.Config{
			SampleRate:      cfg.SampleRate,
			N:               cfg.N,
			NoseLength:      cfg.NoseLength,
			NoseStart:       cfg.NoseStart,
			TipStart:        cfg.TipStart,
			BladeStart:      cfg.BladeStart,
			EpiglottisStart: cfg.EpiglottisStart,
			LipStart:        cfg.LipStart,
		}),
		buf: make([]float64, cfg.Chunk),
	}
	v.tract.SetBlockTime(float64(cfg.Chunk) / cfg.SampleRate)
	return v, nil
}

// step fills buf for one audio block: reshape + recompute reflections
// once, then the per-sample two-half-step inner loop.
func (v *Voc) step() {
	v.tract.Reshape()
	v.tract.CalculateReflections()

	chunk := float64(v.cfg.Chunk)
	for i := 0; i < v.cfg.Chunk; i++ {
		lambda1 := float64(i) / chunk
		lambda2 := (float64(i) + 0.5) / chunk

		g := v.glottis.Compute(lambda1)

		v.tract.Compute(g, lambda1)
		out := v.tract.LipOutput + v.tract.NoseOutput

		v.tract.Compute(g, lambda2)
		out += v.tract.LipOutput + v.tract.NoseOutput

		v.buf[i] = out * v.cfg.VocalOutputScaler
	}
}

// Compute pulls one sample, refilling the block buffer whenever the
// cursor wraps to zero.
func (v *Voc) Compute() float64 {
	if v.counter == 0 {
		v.step()
	}
	out := v.buf[v.counter]
	v.counter = (v.counter + 1) % v.cfg.Chunk
	return out
}

// PlayChunk renders a fresh block and returns a read-only view of it. It
// does not touch the Compute cursor — the two pulling styles (PlayChunk
// for bulk rendering, Compute for a sample at a time) are independent.
func (v *Voc) PlayChunk() []float64 {
	v.step()
	return v.buf
}

// --- observers -------------------------------------------------------

func (v *Voc) Frequency() float64 { return v.glottis.Freq }
func (v *Voc) Tenseness() float64 { return v.glottis.Tenseness }
func (v *Voc) Velum() float64     { return v.tract.VelumTarget() }

// TractDiameters returns the articulator targets (not the live,
// interpolated diameters — see CurrentTractDiameters).
func (v *Voc) TractDiameters() []float64 { return v.tract.TargetDiameters() }

// CurrentTractDiameters returns the live, currently-interpolated
// diameters.
func (v *Voc) CurrentTractDiameters() []float64 { return v.tract.Diameters() }

func (v *Voc) NoseDiameters() []float64 { return v.tract.NoseDiameters() }
func (v *Voc) TractSize() int           { return v.tract.N() }
func (v *Voc) NoseSize() int            { return v.tract.NoseLength() }

// --- articulator setters ----------------------------------------------

func (v *Voc) SetFrequency(f float64)  { v.glottis.Freq = f }
func (v *Voc) SetTenseness(t float64)  { v.glottis.Tenseness = t }
func (v *Voc) SetVelum(target float64) { v.tract.SetVelumTarget(target) }
func (v *Voc) SetTrachea(d float64)    { v.tract.SetTrachea(d) }
func (v *Voc) SetEpiglottis(d float64) { v.tract.SetEpiglottis(d) }
func (v *Voc) SetLips(d float64)       { v.tract.SetLips(d) }

// TongueShape writes a cosine-bump target-diameter profile across
// [blade_start, lip_start), per spec.md §4.4.
func (v *Voc) TongueShape(index, diameter float64) {
	v.tract.TongueShape(index, diameter)
}

// SetTractDiameters writes target_diameter[start:start+len(values)].
func (v *Voc) SetTractDiameters(start int, values []float64) {
	v.tract.SetTractDiameters(start, values)
}

// SeedNoise sets an explicit seed on the aspiration noise source, for
// bit-reproducible output across runs.
func (v *Voc) SeedNoise(seed float64) {
	v.glottis.SeedNoise(seed)
}
