package synth

import (
	"github.com/cwbudde/algo-nesynth/dsp"
)

// ExpressionID identifies a note expression type. The low ids follow the
// standard plugin note-expression numbering.
type ExpressionID uint32

const (
	VolumeExpression     ExpressionID = 0
	PanExpression        ExpressionID = 1
	TuningExpression     ExpressionID = 2
	VibratoExpression    ExpressionID = 3
	IntensityExpression  ExpressionID = 4
	BrightnessExpression ExpressionID = 5

	// CustomExpressionStart is the first synth-specific expression id.
	CustomExpressionStart ExpressionID = 100000
	// RawExpressionBase + VoiceParam writes the normalized value straight
	// into that parameter.
	RawExpressionBase ExpressionID = 200000
)

const (
	NoiseVolumeAExpression ExpressionID = CustomExpressionStart + iota
	NoiseVolumeBExpression
	SineVolumeAExpression
	SineVolumeBExpression
	TriangleVolumeAExpression
	TriangleVolumeBExpression
	SquareVolumeAExpression
	SquareVolumeBExpression
	FilterFreqModExpression
	FilterQModExpression
	FilterTypeExpression
	FilterFreqModAExpression
	FilterQModAExpression
	FilterTypeAExpression
	FilterFreqModBExpression
	FilterQModBExpression
	FilterTypeBExpression
	TriangleSlopeAExpression
	TriangleSlopeBExpression
	SineDetuneAExpression
	SineDetuneBExpression
	ReleaseTimeModExpression
	AttackTimeModExpression
	SustainVolumeModExpression
	DecayTimeModExpression
	GenFreqModAExpression
	GenFreqModBExpression
	WaveformAExpression
	WaveformBExpression
)

const (
	normTuningOneOctave = 0.05
	normTuningOneTone   = normTuningOneOctave / 6
)

type expressionRule func(c *controls, v float64, p *Params)

// ExpressionMapper turns (id, normalized value) pairs into per-voice
// parameter targets.
type ExpressionMapper struct {
	rules map[ExpressionID]expressionRule
}

// NewExpressionMapper returns the mapper with the synth's transform table.
func NewExpressionMapper() *ExpressionMapper {
	m := &ExpressionMapper{rules: map[ExpressionID]expressionRule{
		VolumeExpression:        setGain(VolumeMod),
		TuningExpression:        mapTuning,
		PanExpression:           mapPan,
		FilterFreqModExpression: setBipolar(MasterFilterFreqMod),
		FilterQModExpression:    setBipolar(MasterFilterQMod),
		FilterTypeExpression: func(c *controls, v float64, _ *Params) {
			c.masterFilter = dsp.FilterTypeFromNormalized(v)
		},
		ReleaseTimeModExpression:   setBipolar(ReleaseTimeMod),
		AttackTimeModExpression:    setBipolar(AttackTimeMod),
		DecayTimeModExpression:     setBipolar(DecayTimeMod),
		SustainVolumeModExpression: mapSustain,
	}}

	perGen := [NumGenerators]struct {
		noise, sine, tri, square, freqMod, qMod, fType, slope, detune, genFreq, wave ExpressionID
	}{
		GenA: {NoiseVolumeAExpression, SineVolumeAExpression, TriangleVolumeAExpression, SquareVolumeAExpression,
			FilterFreqModAExpression, FilterQModAExpression, FilterTypeAExpression, TriangleSlopeAExpression,
			SineDetuneAExpression, GenFreqModAExpression, WaveformAExpression},
		GenB: {NoiseVolumeBExpression, SineVolumeBExpression, TriangleVolumeBExpression, SquareVolumeBExpression,
			FilterFreqModBExpression, FilterQModBExpression, FilterTypeBExpression, TriangleSlopeBExpression,
			SineDetuneBExpression, GenFreqModBExpression, WaveformBExpression},
	}
	for g, ids := range perGen {
		s := genSlots[g]
		gen := g
		m.rules[ids.noise] = setDoubled(s.noise)
		m.rules[ids.sine] = setDoubled(s.sine)
		m.rules[ids.tri] = setDoubled(s.triangle)
		m.rules[ids.square] = setDoubled(s.square)
		m.rules[ids.freqMod] = setBipolar(s.filterFreqMod)
		m.rules[ids.qMod] = setBipolar(s.filterQMod)
		m.rules[ids.slope] = setLinear(s.slope)
		m.rules[ids.detune] = setBipolar(s.detune)
		m.rules[ids.genFreq] = setBipolar(s.genFreqMod)
		m.rules[ids.fType] = func(c *controls, v float64, _ *Params) {
			c.filterType[gen] = dsp.FilterTypeFromNormalized(v)
		}
		m.rules[ids.wave] = func(c *controls, v float64, _ *Params) {
			c.waveform[gen] = WaveformFromNormalized(v)
		}
	}
	return m
}

// Apply maps one expression value onto c. Nothing happens while the patch
// bypasses expressions. Ids without a rule are forwarded unchanged when
// they address the raw parameter range and dropped otherwise.
func (m *ExpressionMapper) Apply(p *Params, c *controls, id ExpressionID, value float64) {
	if p != nil && p.Bypass {
		return
	}
	if !(value >= 0) {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	if rule, ok := m.rules[id]; ok {
		rule(c, value, p)
		return
	}
	if id >= RawExpressionBase && id < RawExpressionBase+ExpressionID(NumVoiceParams) {
		c.values[id-RawExpressionBase] = value
	}
}

func setGain(dst VoiceParam) expressionRule {
	return func(c *controls, v float64, _ *Params) {
		c.values[dst] = NormalizedLevelToGain(v)
	}
}

func setBipolar(dst VoiceParam) expressionRule {
	return func(c *controls, v float64, _ *Params) {
		c.values[dst] = bipolar(v)
	}
}

func setDoubled(dst VoiceParam) expressionRule {
	return func(c *controls, v float64, _ *Params) {
		c.values[dst] = 2 * v
	}
}

func setLinear(dst VoiceParam) expressionRule {
	return func(c *controls, v float64, _ *Params) {
		c.values[dst] = v
	}
}

// mapTuning bends by up to an octave either way, or two tones up and three
// down in the wide range. 0.5 is always exactly in tune.
func mapTuning(c *controls, v float64, p *Params) {
	wide := p != nil && p.TuningRange == TuningRangeWide
	switch {
	case v == 0.5:
		c.values[TuningMod] = 0
		return
	case v > 0.5:
		if wide {
			v = min(v, 0.5+2*normTuningOneTone)
		} else {
			v = min(v, 0.5+normTuningOneOctave)
		}
	default:
		if wide {
			v = max(v, 0.5-3*normTuningOneTone)
		} else {
			v = max(v, 0.5-normTuningOneOctave)
		}
	}
	c.values[TuningMod] = (v - 0.5) * 2
}

// mapSustain scales the patch sustain level by the gain law relative to
// its centre, so 0.5 leaves the patch level untouched.
func mapSustain(c *controls, v float64, p *Params) {
	base := MaxVolume
	if p != nil {
		base = p.SustainVolume
	}
	if v == 0.5 {
		c.values[SustainVolumeMod] = base
		return
	}
	c.values[SustainVolumeMod] = min(base*NormalizedLevelToGain(v)/neutralVolume, MaxVolume)
}

// mapPan keeps the near channel at unity and fades the far one to zero.
func mapPan(c *controls, v float64, _ *Params) {
	switch {
	case v == 0.5:
		c.values[PanLeft] = 1
		c.values[PanRight] = 1
	case v > 0.5:
		c.values[PanLeft] = 1
		c.values[PanRight] = 1 + (0.5-v)*2
	default:
		c.values[PanLeft] = v * 2
		c.values[PanRight] = 1
	}
}
