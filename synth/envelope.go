package synth

// EnvelopeStage is the phase of a voice's volume envelope.
type EnvelopeStage uint8

const (
	// StageIdle is the terminal stage: silent, waiting for a note.
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s EnvelopeStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// EnvelopeTimes are the normalized stage times and their per-note
// modulations (each modulation scales its time by 100^mod).
type EnvelopeTimes struct {
	Attack, AttackMod   float64
	Decay, DecayMod     float64
	Release, ReleaseMod float64
}

// Envelope is the attack/decay/sustain/release volume state machine.
//
// Attack rises linearly to MaxVolume and hands over to Decay on its own.
// Decay falls to the sustain level and holds there. Release is entered
// only through Release(), from any sounding stage, and always preempts
// Decay. Release reaching zero ends in StageIdle.
type Envelope struct {
	stage      EnvelopeStage
	volume     float64
	sustain    float64
	sampleRate float64

	attackRate  float64
	decayRate   float64
	releaseRate float64
}

// NewEnvelope creates an idle envelope.
func NewEnvelope(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate}
}

// SetSampleRate changes the rate used for the next Start or Release.
func (e *Envelope) SetSampleRate(sampleRate float64) {
	if sampleRate > 0 {
		e.sampleRate = sampleRate
	}
}

// Start begins a note from silence. When the envelope was still sounding
// the attack and decay rates are scaled by the interrupted volume, so a
// restart from a faint tail attacks very slowly. Engine resets a voice
// before reusing it and never takes this path.
func (e *Envelope) Start(times EnvelopeTimes, sustain float64) {
	resume := e.volume
	if e.stage == StageIdle {
		resume = 0
	}
	e.volume = 0
	e.attackRate = envelopeRate(e.sampleRate, times.Attack, MaxAttackSec, times.AttackMod)
	e.decayRate = envelopeRate(e.sampleRate, times.Decay, MaxDecaySec, times.DecayMod)
	if resume > 0 {
		e.attackRate *= resume
		e.decayRate *= resume
	}
	e.SetSustain(sustain)
	e.stage = StageAttack
}

// SetSustain changes the level Decay settles at. level is linear volume,
// the same domain as the patch's sustain level.
func (e *Envelope) SetSustain(level float64) {
	e.sustain = clamp(level, 0, MaxVolume)
}

// Release enters the release stage from any sounding stage. The rate is
// scaled by the current volume so the release time does not depend on the
// level it starts from.
func (e *Envelope) Release(releaseTime, releaseMod float64) {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.releaseRate = envelopeRate(e.sampleRate, releaseTime, MaxReleaseSec, releaseMod)
	if e.volume > 0 {
		e.releaseRate *= e.volume
	}
	e.stage = StageRelease
}

// Step advances one sample and reports whether the envelope is still
// sounding afterwards.
func (e *Envelope) Step() bool {
	switch e.stage {
	case StageAttack:
		e.volume += e.attackRate
		if e.volume >= MaxVolume {
			e.volume = MaxVolume
			e.stage = StageDecay
		}
	case StageDecay:
		e.volume -= e.decayRate
		if e.volume <= e.sustain {
			e.volume = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		// A moved sustain level is followed at the decay rate.
		switch {
		case e.volume > e.sustain:
			e.volume -= e.decayRate
			if e.volume < e.sustain {
				e.volume = e.sustain
			}
		case e.volume < e.sustain:
			e.volume += e.decayRate
			if e.volume > e.sustain {
				e.volume = e.sustain
			}
		}
	case StageRelease:
		e.volume -= e.releaseRate
		if e.volume <= 0 {
			e.volume = 0
			e.stage = StageIdle
			return false
		}
	case StageIdle:
		return false
	}
	return true
}

// Reset forces the envelope idle and silent.
func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.volume = 0
	e.attackRate = 0
	e.decayRate = 0
	e.releaseRate = 0
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvelopeStage { return e.stage }

// Volume returns the current envelope volume in [0, MaxVolume].
func (e *Envelope) Volume() float64 { return e.volume }

// Active reports whether the envelope is anywhere but idle.
func (e *Envelope) Active() bool { return e.stage != StageIdle }
