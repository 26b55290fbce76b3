package synth

import (
	"math/rand/v2"
)

// Sample is the output sample precision.
type Sample interface {
	~float32 | ~float64
}

// VoiceConfig holds what a voice is built with.
type VoiceConfig struct {
	SampleRate float64
	Params     *Params
	// Noise feeds the noise waveform of generator A and B. Either may be
	// nil, which silences that generator's noise.
	Noise   [NumGenerators]NoiseSource
	Filters FilterFactory
	Mapper  *ExpressionMapper
	Seed    uint64
}

// Voice is one note of the synth: two generators, a master filter, an
// envelope and a stereo pan, mixed additively into the output buffers.
type Voice[T Sample] struct {
	sampleRate float64
	params     *Params
	mapper     *ExpressionMapper
	resolver   FrequencyResolver
	rng        *rand.Rand

	ctl    controls
	env    Envelope
	gen    [NumGenerators]Generator
	master filterStage
	level  Ramp
	panL   Ramp
	panR   Ramp

	// n is the sample counter the oscillators are evaluated at.
	n int64

	pitch        int
	velocity     float64
	noteTuning   float64
	noteID       int32
	levelFromVel float64
	started      uint64

	startDelay     int
	releaseDelay   int
	releasePending bool
}

// NewVoice creates an idle voice.
func NewVoice[T Sample](cfg VoiceConfig) *Voice[T] {
	if cfg.Filters == nil {
		cfg.Filters = NewDefaultFilter
	}
	if cfg.Params == nil {
		cfg.Params = NewDefaultParams()
	}
	if cfg.Mapper == nil {
		cfg.Mapper = NewExpressionMapper()
	}
	v := &Voice[T]{
		sampleRate: cfg.SampleRate,
		params:     cfg.Params,
		mapper:     cfg.Mapper,
		resolver:   NewFrequencyResolver(cfg.SampleRate),
		rng:        rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		env:        Envelope{sampleRate: cfg.SampleRate},
		master:     filterStage{filter: cfg.Filters(cfg.SampleRate), kind: -1},
	}
	for g := range v.gen {
		v.gen[g] = newGenerator(cfg.Filters(cfg.SampleRate), cfg.Noise[g])
	}
	v.Reset()
	return v
}

// SetParams replaces the patch snapshot read during the next blocks.
func (v *Voice[T]) SetParams(p *Params) {
	if p != nil {
		v.params = p
	}
}

// SetSampleRate updates every rate-dependent part of the voice.
func (v *Voice[T]) SetSampleRate(hz float64) {
	if hz <= 0 {
		return
	}
	v.sampleRate = hz
	v.resolver = NewFrequencyResolver(hz)
	v.env.SetSampleRate(hz)
	v.master.filter.SetSampleRate(hz)
	for g := range v.gen {
		v.gen[g].filter.filter.SetSampleRate(hz)
	}
}

// NoteOn starts a note. Patch values are copied into the voice so later
// expressions act on this note alone. sampleOffset delays the start within
// the next processed block.
func (v *Voice[T]) NoteOn(pitch int, velocity, tuning float64, sampleOffset int, noteID int32) {
	p := v.params
	v.pitch = min(max(pitch, 0), 127)
	v.velocity = clamp(velocity, 0, 1)
	v.noteTuning = tuning
	v.noteID = noteID
	v.levelFromVel = 1 + p.VelToLevel*(v.velocity-1)
	v.startDelay = max(sampleOffset, 0)
	v.releasePending = false

	v.ctl.initFromParams(p)
	for g := range v.gen {
		gen := &v.gen[g]
		s := genSlots[g]
		gen.setWaveform(v.ctl.waveform[g])
		gen.sineVol.Jump(v.ctl.values[s.sine])
		gen.triVol.Jump(v.ctl.values[s.triangle])
		gen.squareVol.Jump(v.ctl.values[s.square])
		gen.noiseVol.Jump(v.ctl.values[s.noise])
		gen.slope.Jump(v.ctl.values[s.slope])
		gen.filter.setType(v.ctl.filterType[g])
		gen.filter.jump(p.Gen[g].Filter.Freq, p.Gen[g].Filter.Q)
		gen.sine.reset()
		gen.tri.reset()
	}
	v.master.setType(v.ctl.masterFilter)
	v.master.jump(p.MasterFilter.Freq, p.MasterFilter.Q)
	v.level.Jump(v.levelTarget())
	v.panL.Jump(v.ctl.values[PanLeft])
	v.panR.Jump(v.ctl.values[PanRight])
	v.n = 0

	v.env.Start(v.envelopeTimes(), v.ctl.values[SustainVolumeMod])
}

// NoteOff schedules the release sampleOffset samples into the next block.
func (v *Voice[T]) NoteOff(velocity float64, sampleOffset int) {
	if !v.env.Active() {
		return
	}
	v.releasePending = true
	v.releaseDelay = max(sampleOffset, 0)
}

// SetExpressionValue applies a note expression. It takes effect at the
// start of the next block.
func (v *Voice[T]) SetExpressionValue(id ExpressionID, value float64) {
	v.mapper.Apply(v.params, &v.ctl, id, value)
}

// Reset stops the voice immediately and restores idle defaults. Safe in
// any envelope stage.
func (v *Voice[T]) Reset() {
	v.env.Reset()
	v.ctl = defaultControls()
	for g := range v.gen {
		v.gen[g].reset()
	}
	v.master.filter.Reset()
	v.master.setType(v.ctl.masterFilter)
	v.master.jump(1, 0)
	v.level.Jump(0)
	v.panL.Jump(1)
	v.panR.Jump(1)
	v.n = 0
	v.pitch = 0
	v.velocity = 0
	v.noteTuning = 0
	v.noteID = -1
	v.levelFromVel = 0
	v.startDelay = 0
	v.releaseDelay = 0
	v.releasePending = false
}

// Process adds numSamples of the voice into out and reports whether the
// voice is still sounding. It returns false once the release has reached
// zero; the rest of that block is left untouched.
func (v *Voice[T]) Process(out [2][]T, numSamples int) bool {
	if !v.env.Active() {
		return false
	}
	numSamples = min(numSamples, len(out[0]), len(out[1]))
	if numSamples <= 0 {
		return true
	}
	v.prepareBlock(numSamples)

	left, right := out[0][:numSamples], out[1][:numSamples]
	for i := range left {
		if v.releasePending {
			if v.releaseDelay > 0 {
				v.releaseDelay--
			} else {
				v.releasePending = false
				v.env.Release(v.params.ReleaseTime, v.ctl.values[ReleaseTimeMod])
			}
		}
		if v.startDelay > 0 {
			v.startDelay--
			if v.env.Stage() != StageRelease {
				continue
			}
		}
		if !v.env.Step() {
			return false
		}

		n := float64(v.n)
		b := v.gen[GenB].next(n)
		a := v.gen[GenA].next(n)
		v.n++

		s := v.master.process(a+b) * v.env.Volume() * v.level.Value()
		left[i] += T(s * v.panL.Value())
		right[i] += T(s * v.panR.Value())

		v.gen[GenA].advance(v.rng)
		v.gen[GenB].advance(v.rng)
		v.level.Advance()
		v.panL.Advance()
		v.panR.Advance()
	}

	if v.n >= counterRebase {
		n := float64(v.n)
		for g := range v.gen {
			v.gen[g].sine.rebase(n)
			v.gen[g].tri.rebase(n)
		}
		v.n = 0
	}
	return true
}

// prepareBlock applies mode changes, sets every ramp target from the
// parameter store and patch, and resolves the oscillator frequencies.
func (v *Voice[T]) prepareBlock(numSamples int) {
	p := v.params
	c := &v.ctl
	rt := rampSamples(v.sampleRate, numSamples)

	v.level.SetTarget(v.levelTarget())
	v.level.Prepare(rt)
	v.panL.SetTarget(clamp(c.values[PanLeft], 0, 1))
	v.panL.Prepare(rt)
	v.panR.SetTarget(clamp(c.values[PanRight], 0, 1))
	v.panR.Prepare(rt)

	for g := range v.gen {
		gen := &v.gen[g]
		s := genSlots[g]
		fp := &p.Gen[g].Filter
		if c.waveform[g] != gen.waveform {
			gen.setWaveform(c.waveform[g])
		}
		gen.filter.setType(c.filterType[g])

		gen.sineVol.SetTarget(c.values[s.sine])
		gen.sineVol.Prepare(rt)
		gen.triVol.SetTarget(c.values[s.triangle])
		gen.triVol.Prepare(rt)
		gen.squareVol.SetTarget(c.values[s.square])
		gen.squareVol.Prepare(rt)
		gen.noiseVol.SetTarget(c.values[s.noise])
		gen.noiseVol.Prepare(rt)
		gen.slope.SetTarget(c.values[s.slope])
		gen.slope.Prepare(rt)

		gen.filter.prepare(
			clamp(fp.Freq+fp.FreqModDepth*c.values[s.filterFreqMod], 0, 1),
			clamp(fp.Q+c.values[s.filterQMod], 0, 1),
			rt,
		)
	}

	mf := &p.MasterFilter
	v.master.setType(c.masterFilter)
	v.master.prepare(
		clamp(mf.Freq+mf.FreqModDepth*c.values[MasterFilterFreqMod], 0, 1),
		clamp(mf.Q+c.values[MasterFilterQMod], 0, 1),
		rt,
	)

	v.env.SetSustain(c.values[SustainVolumeMod])
	v.resolveFrequencies()
}

func (v *Voice[T]) resolveFrequencies() {
	p := v.params
	c := &v.ctl
	r := v.resolver
	base := FrequencyTable[v.pitch]
	tuningHz := r.TuningHz(base, c.values[TuningMod], p.MasterTuning, v.noteTuning)
	n := float64(v.n)

	for g := range v.gen {
		gen := &v.gen[g]
		s := genSlots[g]
		offset := r.OffsetHz(clamp(p.Gen[g].GenFreq+c.values[s.genFreqMod], 0, 1))

		gen.triHz = r.GeneratorHz(base, tuningHz, 0, offset)
		// The triangle-family partial runs an octave below the sine.
		gen.tri.retune(r.Increment(gen.triHz)/2, n)

		gen.sineHz = r.GeneratorHz(base, tuningHz, r.DetuneHz(base, c.values[s.detune]), offset)
		gen.sine.retune(r.Increment(gen.sineHz), n)
	}
}

// levelTarget is the master volume scaled by velocity through the gain
// law, relative to the volume expression's centre position.
func (v *Voice[T]) levelTarget() float64 {
	master := NormalizedLevelToGain(clamp(v.params.MasterVolume*v.levelFromVel, 0, 1))
	return master * v.ctl.values[VolumeMod] / neutralVolume
}

func (v *Voice[T]) envelopeTimes() EnvelopeTimes {
	p := v.params
	return EnvelopeTimes{
		Attack:     p.AttackTime,
		AttackMod:  v.ctl.values[AttackTimeMod],
		Decay:      p.DecayTime,
		DecayMod:   v.ctl.values[DecayTimeMod],
		Release:    p.ReleaseTime,
		ReleaseMod: v.ctl.values[ReleaseTimeMod],
	}
}

// Active reports whether the voice is sounding or about to.
func (v *Voice[T]) Active() bool { return v.env.Active() }

// Stage returns the envelope stage.
func (v *Voice[T]) Stage() EnvelopeStage { return v.env.Stage() }

// Volume returns the envelope volume.
func (v *Voice[T]) Volume() float64 { return v.env.Volume() }

// NoteID returns the id given at note-on, or -1 when idle.
func (v *Voice[T]) NoteID() int32 { return v.noteID }

// Pitch returns the playing note.
func (v *Voice[T]) Pitch() int { return v.pitch }

// Releasing reports whether a note-off has been received.
func (v *Voice[T]) Releasing() bool {
	return v.releasePending || v.env.Stage() == StageRelease
}

// PanGains returns the current left and right pan gains.
func (v *Voice[T]) PanGains() (left, right float64) {
	return v.panL.Value(), v.panR.Value()
}

// Generator returns generator g for inspection.
func (v *Voice[T]) Generator(g int) *Generator { return &v.gen[g] }
