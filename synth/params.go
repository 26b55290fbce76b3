package synth

import (
	"github.com/cwbudde/algo-nesynth/dsp"
)

// NumGenerators is the number of oscillator+filter chains per voice.
const NumGenerators = 2

// Generator indices.
const (
	GenA = 0
	GenB = 1
)

// TuningRange selects how far the tuning expression can bend a note.
type TuningRange int

const (
	// TuningRangeOctave bends up to one octave either way.
	TuningRangeOctave TuningRange = iota
	// TuningRangeWide bends two tones up and three tones down.
	TuningRangeWide

	numTuningRanges
)

func (r TuningRange) String() string {
	switch r {
	case TuningRangeOctave:
		return "octave"
	case TuningRangeWide:
		return "wide"
	default:
		return "unknown"
	}
}

// GeneratorParams holds the patch settings of one generator chain.
type GeneratorParams struct {
	Waveform       Waveform
	SineVolume     float64 // [0,1]
	TriangleVolume float64 // [0,1]
	SquareVolume   float64 // [0,1]
	NoiseVolume    float64 // [0,1]
	SineDetune     float64 // [-1,1], +-2 semitones
	TriangleSlope  float64 // [0,1]
	GenFreq        float64 // [0,1], position on dsp.FrequencyScale
	Filter         FilterParams
}

// FilterParams holds the patch settings of one filter.
type FilterParams struct {
	Type         dsp.FilterType
	Freq         float64 // [0,1], position on dsp.FrequencyScale
	Q            float64 // [0,1]
	FreqModDepth float64 // [-1,1]
}

// Params holds the global patch shared by every voice. The engine owns the
// live copy; voices only read it during a block.
type Params struct {
	MasterVolume float64 // [0,1]
	MasterTuning float64 // [-1,1], +-2 semitones
	VelToLevel   float64 // [0,1]

	AttackTime    float64 // [0,1] of MaxAttackSec
	DecayTime     float64 // [0,1] of MaxDecaySec
	SustainVolume float64 // [0,1]
	ReleaseTime   float64 // [0,1] of MaxReleaseSec

	Gen          [NumGenerators]GeneratorParams
	MasterFilter FilterParams

	TuningRange TuningRange
	// Bypass disables every note expression.
	Bypass bool
	// StereoMS is the mid/side width applied to the summed bus; 0 leaves
	// the voices untouched, 1 removes the mid.
	StereoMS float64
}

// NeutralGenFreq is the generator frequency control value that adds no
// offset to the note pitch.
var NeutralGenFreq = dsp.FrequencyScale.Invert(MiddleCHz)

// NewDefaultParams creates the default patch.
func NewDefaultParams() *Params {
	p := &Params{
		MasterVolume:  0.8,
		MasterTuning:  0,
		VelToLevel:    1,
		AttackTime:    0,
		DecayTime:     0,
		SustainVolume: 0.8,
		ReleaseTime:   0,
		MasterFilter:  FilterParams{Type: dsp.Lowpass, Freq: 1, Q: 0, FreqModDepth: 1},
		TuningRange:   TuningRangeOctave,
	}
	for g := range p.Gen {
		p.Gen[g] = GeneratorParams{
			Waveform:       WaveSine,
			SineVolume:     0.8,
			TriangleVolume: 1,
			SquareVolume:   0.1,
			NoiseVolume:    0.1,
			SineDetune:     0,
			TriangleSlope:  0.5,
			GenFreq:        NeutralGenFreq,
			Filter:         FilterParams{Type: dsp.Lowpass, Freq: 1, Q: 0, FreqModDepth: 1},
		}
	}
	return p
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ParamID identifies a host-automatable patch parameter.
type ParamID int

const (
	ParamMasterVolume ParamID = iota
	ParamMasterTuning
	ParamVelToLevel
	ParamAttackTime
	ParamDecayTime
	ParamSustainVolume
	ParamReleaseTime
	ParamFilterType
	ParamFilterFreq
	ParamFilterQ
	ParamFilterFreqModDepth
	ParamWaveformA
	ParamSineVolumeA
	ParamTriangleVolumeA
	ParamSquareVolumeA
	ParamNoiseVolumeA
	ParamSineDetuneA
	ParamTriangleSlopeA
	ParamGenFreqA
	ParamFilterTypeA
	ParamFilterFreqA
	ParamFilterQA
	ParamFilterFreqModDepthA
	ParamWaveformB
	ParamSineVolumeB
	ParamTriangleVolumeB
	ParamSquareVolumeB
	ParamNoiseVolumeB
	ParamSineDetuneB
	ParamTriangleSlopeB
	ParamGenFreqB
	ParamFilterTypeB
	ParamFilterFreqB
	ParamFilterQB
	ParamFilterFreqModDepthB
	ParamTuningRange
	ParamBypass
	ParamStereoMS

	NumParams
)

var paramNames = [NumParams]string{
	ParamMasterVolume:        "master_volume",
	ParamMasterTuning:        "master_tuning",
	ParamVelToLevel:          "vel_to_level",
	ParamAttackTime:          "attack_time",
	ParamDecayTime:           "decay_time",
	ParamSustainVolume:       "sustain_volume",
	ParamReleaseTime:         "release_time",
	ParamFilterType:          "filter_type",
	ParamFilterFreq:          "filter_freq",
	ParamFilterQ:             "filter_q",
	ParamFilterFreqModDepth:  "filter_freq_mod_depth",
	ParamWaveformA:           "a.waveform",
	ParamSineVolumeA:         "a.sine_volume",
	ParamTriangleVolumeA:     "a.triangle_volume",
	ParamSquareVolumeA:       "a.square_volume",
	ParamNoiseVolumeA:        "a.noise_volume",
	ParamSineDetuneA:         "a.sine_detune",
	ParamTriangleSlopeA:      "a.triangle_slope",
	ParamGenFreqA:            "a.gen_freq",
	ParamFilterTypeA:         "a.filter_type",
	ParamFilterFreqA:         "a.filter_freq",
	ParamFilterQA:            "a.filter_q",
	ParamFilterFreqModDepthA: "a.filter_freq_mod_depth",
	ParamWaveformB:           "b.waveform",
	ParamSineVolumeB:         "b.sine_volume",
	ParamTriangleVolumeB:     "b.triangle_volume",
	ParamSquareVolumeB:       "b.square_volume",
	ParamNoiseVolumeB:        "b.noise_volume",
	ParamSineDetuneB:         "b.sine_detune",
	ParamTriangleSlopeB:      "b.triangle_slope",
	ParamGenFreqB:            "b.gen_freq",
	ParamFilterTypeB:         "b.filter_type",
	ParamFilterFreqB:         "b.filter_freq",
	ParamFilterQB:            "b.filter_q",
	ParamFilterFreqModDepthB: "b.filter_freq_mod_depth",
	ParamTuningRange:         "tuning_range",
	ParamBypass:              "bypass",
	ParamStereoMS:            "stereo_ms",
}

func (id ParamID) String() string {
	if id < 0 || id >= NumParams {
		return "unknown"
	}
	return paramNames[id]
}

// ParamIDByName looks a parameter up by its String name.
func ParamIDByName(name string) (ParamID, bool) {
	for i, n := range paramNames {
		if n == name {
			return ParamID(i), true
		}
	}
	return 0, false
}

func bipolar(v float64) float64 { return 2 * (v - 0.5) }

// SetNormalized applies a host-normalized value in [0,1] to the patch.
// Unknown ids are ignored.
func (p *Params) SetNormalized(id ParamID, v float64) {
	v = clamp(v, 0, 1)
	switch id {
	case ParamMasterVolume:
		p.MasterVolume = v
	case ParamMasterTuning:
		p.MasterTuning = bipolar(v)
	case ParamVelToLevel:
		p.VelToLevel = v
	case ParamAttackTime:
		p.AttackTime = v
	case ParamDecayTime:
		p.DecayTime = v
	case ParamSustainVolume:
		p.SustainVolume = v
	case ParamReleaseTime:
		p.ReleaseTime = v
	case ParamFilterType:
		p.MasterFilter.Type = dsp.FilterTypeFromNormalized(v)
	case ParamFilterFreq:
		p.MasterFilter.Freq = v
	case ParamFilterQ:
		p.MasterFilter.Q = v
	case ParamFilterFreqModDepth:
		p.MasterFilter.FreqModDepth = bipolar(v)
	case ParamTuningRange:
		p.TuningRange = TuningRange(dsp.SelectMode(v, int(numTuningRanges)))
	case ParamBypass:
		p.Bypass = v >= 0.5
	case ParamStereoMS:
		p.StereoMS = v
	default:
		if id >= ParamWaveformA && id <= ParamFilterFreqModDepthB {
			p.setGeneratorNormalized(id, v)
		}
	}
}

func (p *Params) setGeneratorNormalized(id ParamID, v float64) {
	const span = ParamWaveformB - ParamWaveformA
	g := &p.Gen[GenA]
	if id >= ParamWaveformB {
		g = &p.Gen[GenB]
		id -= span
	}
	switch id {
	case ParamWaveformA:
		g.Waveform = WaveformFromNormalized(v)
	case ParamSineVolumeA:
		g.SineVolume = v
	case ParamTriangleVolumeA:
		g.TriangleVolume = v
	case ParamSquareVolumeA:
		g.SquareVolume = v
	case ParamNoiseVolumeA:
		g.NoiseVolume = v
	case ParamSineDetuneA:
		g.SineDetune = bipolar(v)
	case ParamTriangleSlopeA:
		g.TriangleSlope = v
	case ParamGenFreqA:
		g.GenFreq = v
	case ParamFilterTypeA:
		g.Filter.Type = dsp.FilterTypeFromNormalized(v)
	case ParamFilterFreqA:
		g.Filter.Freq = v
	case ParamFilterQA:
		g.Filter.Q = v
	case ParamFilterFreqModDepthA:
		g.Filter.FreqModDepth = bipolar(v)
	}
}

func unipolar(v float64) float64 { return 0.5*v + 0.5 }

// modeNormalized returns the centre of mode m's band out of n.
func modeNormalized(m, n int) float64 { return (float64(m) + 0.5) / float64(n) }

func boolNormalized(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Normalized reads a parameter back as a host-normalized value. Stepped
// parameters report the centre of their band, so SetNormalized(id,
// Normalized(id)) leaves the patch unchanged. Unknown ids read as 0.
func (p *Params) Normalized(id ParamID) float64 {
	switch id {
	case ParamMasterVolume:
		return p.MasterVolume
	case ParamMasterTuning:
		return unipolar(p.MasterTuning)
	case ParamVelToLevel:
		return p.VelToLevel
	case ParamAttackTime:
		return p.AttackTime
	case ParamDecayTime:
		return p.DecayTime
	case ParamSustainVolume:
		return p.SustainVolume
	case ParamReleaseTime:
		return p.ReleaseTime
	case ParamFilterType:
		return modeNormalized(int(p.MasterFilter.Type), int(dsp.NumFilterTypes))
	case ParamFilterFreq:
		return p.MasterFilter.Freq
	case ParamFilterQ:
		return p.MasterFilter.Q
	case ParamFilterFreqModDepth:
		return unipolar(p.MasterFilter.FreqModDepth)
	case ParamTuningRange:
		return modeNormalized(int(p.TuningRange), int(numTuningRanges))
	case ParamBypass:
		return boolNormalized(p.Bypass)
	case ParamStereoMS:
		return p.StereoMS
	}
	if id < ParamWaveformA || id > ParamFilterFreqModDepthB {
		return 0
	}
	const span = ParamWaveformB - ParamWaveformA
	g := &p.Gen[GenA]
	if id >= ParamWaveformB {
		g = &p.Gen[GenB]
		id -= span
	}
	switch id {
	case ParamWaveformA:
		return modeNormalized(int(g.Waveform), int(NumWaveforms))
	case ParamSineVolumeA:
		return g.SineVolume
	case ParamTriangleVolumeA:
		return g.TriangleVolume
	case ParamSquareVolumeA:
		return g.SquareVolume
	case ParamNoiseVolumeA:
		return g.NoiseVolume
	case ParamSineDetuneA:
		return unipolar(g.SineDetune)
	case ParamTriangleSlopeA:
		return g.TriangleSlope
	case ParamGenFreqA:
		return g.GenFreq
	case ParamFilterTypeA:
		return modeNormalized(int(g.Filter.Type), int(dsp.NumFilterTypes))
	case ParamFilterFreqA:
		return g.Filter.Freq
	case ParamFilterQA:
		return g.Filter.Q
	case ParamFilterFreqModDepthA:
		return unipolar(g.Filter.FreqModDepth)
	}
	return 0
}
