// Package tract implements the 1-D digital waveguide vocal tract: a chain
// of cylindrical oral segments with a nasal side-branch joined at the
// velum, scattering at Kelly-Lochbaum junctions, and a bounded pool of
// plosive-release transients.
package tract

import (
	"math"

	"github.com/pinktrombone/trmgo/transient"
)

// BaseN is the reference segment count the initial diameter profile is
// scaled against.
const BaseN = 44

const (
	glottalReflection = 0.75
	lipReflection      = -0.85
	waveDamping        = 0.999
	movementSpeed      = 15.0
	velumOpenRate      = 0.25
	velumCloseRate     = 0.1
	minVelumTarget     = 0.01
	fullyReflective    = 0.999
	obstructionFloor   = 0.001
	nasalCoupledFloor  = 0.05
)

// Config carries the fixed topology of a Tract: segment counts and the
// five named oral boundary indices.
type Config struct {
	SampleRate      float64
	N               int
	NoseLength      int
	NoseStart       int
	TipStart        int
	BladeStart      int
	EpiglottisStart int
	LipStart        int
}

// Tract is the oral + nasal waveguide. All slices are allocated once at
// construction and never resized.
type Tract struct {
	cfg Config

	blockTime float64
	t         float64 // 1/sr

	diameter       []float64
	restDiameter   []float64
	targetDiameter []float64

	a []float64
	r []float64
	l []float64

	reflection    []float64 // length N+1
	newReflection []float64

	junctionOutR []float64 // length N+1
	junctionOutL []float64

	noseL      []float64
	noseR      []float64
	noseDiam   []float64
	noseA      []float64
	noseRefl   []float64 // length M+1
	noseJuncL  []float64
	noseJuncR  []float64

	reflectionLeft, reflectionRight, reflectionNose       float64
	newReflectionLeft, newReflectionRight, newReflectionNose float64

	velumTarget     float64
	lastObstruction int

	LipOutput  float64
	NoseOutput float64

	pool *transient.Pool
}

// New constructs a Tract with the initial rest-diameter profile and
// computes the first block's reflection coefficients.
func New(cfg Config) *Tract {
	tr := &Tract{
		cfg:             cfg,
		t:               1.0 / cfg.SampleRate,
		diameter:        make([]float64, cfg.N),
		restDiameter:    make([]float64, cfg.N),
		targetDiameter:  make([]float64, cfg.N),
		a:               make([]float64, cfg.N),
		r:               make([]float64, cfg.N),
		l:               make([]float64, cfg.N),
		reflection:      make([]float64, cfg.N+1),
		newReflection:   make([]float64, cfg.N+1),
		junctionOutR:    make([]float64, cfg.N+1),
		junctionOutL:    make([]float64, cfg.N+1),
		noseL:           make([]float64, cfg.NoseLength),
		noseR:           make([]float64, cfg.NoseLength),
		noseDiam:        make([]float64, cfg.NoseLength),
		noseA:           make([]float64, cfg.NoseLength),
		noseRefl:        make([]float64, cfg.NoseLength+1),
		noseJuncL:       make([]float64, cfg.NoseLength+1),
		noseJuncR:       make([]float64, cfg.NoseLength+1),
		velumTarget:     minVelumTarget,
		lastObstruction: -1,
		pool:            transient.NewPool(),
	}

	// chunk-agnostic at construction time; Voc sets the real block_time
	// once it knows its chunk size (see SetBlockTime).
	tr.blockTime = 1024.0 / cfg.SampleRate

	tr.calculateDiameters()
	tr.calculateNoseDiameters()
	tr.CalculateReflections()
	tr.calculateNoseReflections()
	tr.noseDiam[0] = tr.velumTarget
	tr.noseA[0] = tr.noseDiam[0] * tr.noseDiam[0]

	return tr
}

// SetBlockTime sets the duration, in seconds, of one reshape/reflection
// block — chunk/sampleRate, from the orchestrator's block size.
func (tr *Tract) SetBlockTime(seconds float64) {
	tr.blockTime = seconds
}

func (tr *Tract) calculateDiameters() {
	n := tr.cfg.N
	for i := 0; i < n; i++ {
		var d float64
		switch {
		case i < int((1+float64(tr.cfg.EpiglottisStart))*float64(n)/BaseN-0.5):
			d = 0.6
		case i < int(float64(tr.cfg.BladeStart)*float64(n)/BaseN):
			d = 1.1
		default:
			d = 1.5
		}
		tr.diameter[i] = d
		tr.restDiameter[i] = d
		tr.targetDiameter[i] = d
	}
}

func (tr *Tract) calculateNoseDiameters() {
	m := tr.cfg.NoseLength
	for i := 0; i < m; i++ {
		d := 2.0 * float64(i) / float64(m)
		var diam float64
		if d < 1.0 {
			diam = 0.4 + 1.6*d
		} else {
			diam = 0.5 + 1.5*(2.0-d)
		}
		if diam > 1.9 {
			diam = 1.9
		}
		tr.noseDiam[i] = diam
	}
}

func (tr *Tract) calculateNoseReflections() {
	m := tr.cfg.NoseLength
	for i := 0; i < m; i++ {
		tr.noseA[i] = tr.noseDiam[i] * tr.noseDiam[i]
	}
	for i := 1; i < m; i++ {
		tr.noseRefl[i] = (tr.noseA[i-1] - tr.noseA[i]) / (tr.noseA[i-1] + tr.noseA[i])
	}
}

func moveTowards(current, target, amtUp, amtDown float64) float64 {
	if current < target {
		next := current + amtUp
		if next > target {
			next = target
		}
		return next
	}
	next := current - amtDown
	if next < target {
		next = target
	}
	return next
}

// Reshape advances every oral diameter toward its target at the
// asymmetric opening/closing rates, advances the nasal aperture toward
// velumTarget, and appends a plosive-release transient the instant a
// closure reopens while the velum is essentially shut.
func (tr *Tract) Reshape() {
	n := tr.cfg.N
	currentObstruction := -1
	amount := tr.blockTime * movementSpeed

	for i := 0; i < n; i++ {
		var slowReturn float64
		switch {
		case i < tr.cfg.NoseStart:
			slowReturn = 0.6
		case i >= tr.cfg.TipStart:
			slowReturn = 1.0
		default:
			slowReturn = 0.6 + 0.4*float64(i-tr.cfg.NoseStart)/float64(tr.cfg.TipStart-tr.cfg.NoseStart)
		}

		d := tr.diameter[i]
		target := tr.targetDiameter[i]
		if d < obstructionFloor {
			currentObstruction = i
		}

		tr.diameter[i] = moveTowards(d, target, slowReturn*amount, 2.0*amount)
	}

	if tr.lastObstruction > -1 && currentObstruction == -1 && tr.noseA[0] < nasalCoupledFloor {
		tr.pool.Append(tr.lastObstruction)
	}
	tr.lastObstruction = currentObstruction

	tr.noseDiam[0] = moveTowards(tr.noseDiam[0], tr.velumTarget, amount*velumOpenRate, amount*velumCloseRate)
	tr.noseA[0] = tr.noseDiam[0] * tr.noseDiam[0]
}

// CalculateReflections recomputes area and the "new" scattering
// coefficients for the next block, while the per-sample compute loop
// keeps interpolating from the previous block's coefficients via lambda.
func (tr *Tract) CalculateReflections() {
	n := tr.cfg.N
	for i := 0; i < n; i++ {
		tr.a[i] = tr.diameter[i] * tr.diameter[i]
	}

	for i := 1; i < n; i++ {
		tr.reflection[i] = tr.newReflection[i]
		if tr.a[i] == 0 {
			tr.newReflection[i] = fullyReflective
		} else {
			tr.newReflection[i] = (tr.a[i-1] - tr.a[i]) / (tr.a[i-1] + tr.a[i])
		}
	}

	tr.reflectionLeft = tr.newReflectionLeft
	tr.reflectionRight = tr.newReflectionRight
	tr.reflectionNose = tr.newReflectionNose

	ns := tr.cfg.NoseStart
	sum := tr.a[ns] + tr.a[ns+1] + tr.noseA[0]
	tr.newReflectionLeft = (2.0*tr.a[ns] - sum) / sum
	tr.newReflectionRight = (2.0*tr.a[ns+1] - sum) / sum
	tr.newReflectionNose = (2.0*tr.noseA[0] - sum) / sum

	tr.calculateNoseReflections()
}

// Compute runs one waveguide sub-step: apply & age transients, scatter at
// every junction (interpolating old->new reflection by lambda), propagate
// one cell, and set LipOutput/NoseOutput. It is called twice per audio
// sample at lambda = i/chunk and (i+0.5)/chunk.
func (tr *Tract) Compute(input, lambda float64) {
	tr.applyTransients()

	n := tr.cfg.N
	tr.junctionOutR[0] = tr.l[0]*glottalReflection + input
	tr.junctionOutL[n] = tr.r[n-1] * lipReflection

	for i := 1; i < n; i++ {
		rc := tr.reflection[i]*(1-lambda) + tr.newReflection[i]*lambda
		w := rc * (tr.r[i-1] + tr.l[i])
		tr.junctionOutR[i] = tr.r[i-1] - w
		tr.junctionOutL[i] = tr.l[i] + w
	}

	tr.computeVelumJunction(lambda)
	tr.computeLipOutput()

	m := tr.cfg.NoseLength
	tr.noseJuncL[m] = tr.noseR[m-1] * lipReflection

	for i := 1; i < m; i++ {
		w := tr.noseRefl[i] * (tr.noseR[i-1] + tr.noseL[i])
		tr.noseJuncR[i] = tr.noseR[i-1] - w
		tr.noseJuncL[i] = tr.noseL[i] + w
	}

	copy(tr.noseR[:m], tr.noseJuncR[:m])
	copy(tr.noseL[:m], tr.noseJuncL[1:m+1])
	tr.NoseOutput = tr.noseR[m-1]
}

func (tr *Tract) computeVelumJunction(lambda float64) {
	i := tr.cfg.NoseStart

	rl := tr.reflectionLeft*(1-lambda) + tr.newReflectionLeft*lambda
	tr.junctionOutL[i] = rl*tr.r[i-1] + (1+rl)*(tr.noseL[0]+tr.l[i])

	rr := tr.reflectionRight*(1-lambda) + tr.newReflectionRight*lambda
	tr.junctionOutR[i] = rr*tr.l[i] + (1+rr)*(tr.r[i-1]+tr.noseL[0])

	rn := tr.reflectionNose*(1-lambda) + tr.newReflectionNose*lambda
	tr.noseJuncR[0] = rn*tr.noseL[0] + (1+rn)*(tr.l[i]+tr.r[i-1])
}

func (tr *Tract) computeLipOutput() {
	n := tr.cfg.N
	for i := 0; i < n; i++ {
		tr.r[i] = tr.junctionOutR[i] * waveDamping
		tr.l[i] = tr.junctionOutL[i+1] * waveDamping
	}
	tr.LipOutput = tr.r[n-1]
}

func (tr *Tract) applyTransients() {
	var released []int
	tr.pool.Each(func(id int, t *transient.Transient) {
		amp := t.Amplitude()
		tr.l[t.Position] += amp * 0.5
		tr.r[t.Position] += amp * 0.5
		t.TimeAlive += tr.t * 0.5
		if t.TimeAlive > t.Lifetime {
			released = append(released, id)
		}
	})
	for _, id := range released {
		tr.pool.Remove(id)
	}
}

// --- articulator surface -------------------------------------------------

// N returns the oral segment count.
func (tr *Tract) N() int { return tr.cfg.N }

// NoseLength returns the nasal segment count.
func (tr *Tract) NoseLength() int { return tr.cfg.NoseLength }

// BladeStart, LipStart, TipStart, EpiglottisStart, NoseStart expose the
// fixed topology indices that Voc's tongue_shape needs.
func (tr *Tract) BladeStart() int      { return tr.cfg.BladeStart }
func (tr *Tract) LipStart() int        { return tr.cfg.LipStart }
func (tr *Tract) TipStart() int        { return tr.cfg.TipStart }
func (tr *Tract) EpiglottisStart() int { return tr.cfg.EpiglottisStart }
func (tr *Tract) NoseStart() int       { return tr.cfg.NoseStart }

// TargetDiameters returns the mutable target-diameter slice (never the
// live diameter slice — articulators only ever move a target).
func (tr *Tract) TargetDiameters() []float64 { return tr.targetDiameter }

// Diameters returns the live, currently-interpolated diameters.
func (tr *Tract) Diameters() []float64 { return tr.diameter }

// NoseDiameters returns the fixed nasal diameter profile (index 0 is the
// velum aperture, which moves toward VelumTarget).
func (tr *Tract) NoseDiameters() []float64 { return tr.noseDiam }

// VelumTarget returns the current velum aperture goal.
func (tr *Tract) VelumTarget() float64 { return tr.velumTarget }

// SetVelumTarget clamps to the spec's minimum open aperture and writes the
// goal that nose_diameter[0] moves toward over subsequent reshapes.
func (tr *Tract) SetVelumTarget(d float64) {
	if d < minVelumTarget {
		d = minVelumTarget
	}
	tr.velumTarget = d
}

// SetLips writes target_diameter[lip_start:n] to d.
func (tr *Tract) SetLips(d float64) {
	for i := tr.cfg.LipStart; i < tr.cfg.N; i++ {
		tr.targetDiameter[i] = d
	}
}

// SetEpiglottis writes target_diameter[epiglottis_start:blade_start] to d.
func (tr *Tract) SetEpiglottis(d float64) {
	for i := tr.cfg.EpiglottisStart; i < tr.cfg.BladeStart; i++ {
		tr.targetDiameter[i] = d
	}
}

// SetTrachea writes target_diameter[0:epiglottis_start] to d.
func (tr *Tract) SetTrachea(d float64) {
	for i := 0; i < tr.cfg.EpiglottisStart; i++ {
		tr.targetDiameter[i] = d
	}
}

// SetTractDiameters writes target_diameter[start:start+len(values)],
// clipped to the array bounds.
func (tr *Tract) SetTractDiameters(start int, values []float64) {
	for i, v := range values {
		idx := start + i
		if idx < 0 || idx >= tr.cfg.N {
			continue
		}
		tr.targetDiameter[idx] = v
	}
}

// TongueShape writes the cosine-bump tongue profile across
// [blade_start, lip_start), per spec.md §4.4.
func (tr *Tract) TongueShape(index, diameter float64) {
	blade, lip, tip := tr.cfg.BladeStart, tr.cfg.LipStart, tr.cfg.TipStart
	for i := blade; i < lip; i++ {
		t := 1.1 * math.Pi * (index - float64(i)) / float64(tip-blade)
		fixedDiam := 2.0 + (diameter-2.0)/1.5
		curve := (1.5 - fixedDiam) * math.Cos(t)

		if i == blade-2 || i == lip-1 {
			curve *= 0.8
		}
		if i == blade || i == lip-2 {
			curve *= 0.94
		}

		tr.targetDiameter[i] = 1.5 - curve
	}
}
