package synth

import "github.com/cwbudde/algo-nesynth/dsp"

// VoiceParam indexes the per-voice parameter store that note expressions
// and note-on initialisation write into.
type VoiceParam int

const (
	VolumeMod VoiceParam = iota
	TuningMod
	PanLeft
	PanRight
	NoiseVolumeA
	NoiseVolumeB
	MasterFilterFreqMod
	MasterFilterQMod
	FilterFreqModA
	FilterQModA
	FilterFreqModB
	FilterQModB
	SineVolumeA
	TriangleVolumeA
	SineVolumeB
	TriangleVolumeB
	TriangleSlopeA
	SineDetuneA
	TriangleSlopeB
	SineDetuneB
	ReleaseTimeMod
	AttackTimeMod
	SustainVolumeMod
	DecayTimeMod
	SquareVolumeA
	SquareVolumeB
	GenFreqModA
	GenFreqModB

	NumVoiceParams
)

// generatorSlots names the VoiceParam of each per-generator quantity.
type generatorSlots struct {
	sine, triangle, square, noise VoiceParam
	slope, detune, genFreqMod     VoiceParam
	filterFreqMod, filterQMod     VoiceParam
}

var genSlots = [NumGenerators]generatorSlots{
	GenA: {
		sine: SineVolumeA, triangle: TriangleVolumeA, square: SquareVolumeA, noise: NoiseVolumeA,
		slope: TriangleSlopeA, detune: SineDetuneA, genFreqMod: GenFreqModA,
		filterFreqMod: FilterFreqModA, filterQMod: FilterQModA,
	},
	GenB: {
		sine: SineVolumeB, triangle: TriangleVolumeB, square: SquareVolumeB, noise: NoiseVolumeB,
		slope: TriangleSlopeB, detune: SineDetuneB, genFreqMod: GenFreqModB,
		filterFreqMod: FilterFreqModB, filterQMod: FilterQModB,
	},
}

// controls is everything the expression mapper may change on a voice: the
// parameter store plus the mode selections. It is a plain value so it can
// be compared and copied.
type controls struct {
	values       [NumVoiceParams]float64
	waveform     [NumGenerators]Waveform
	filterType   [NumGenerators]dsp.FilterType
	masterFilter dsp.FilterType
}

// neutralVolume is the volume expression value at its centre position.
var neutralVolume = NormalizedLevelToGain(0.5)

func defaultControls() controls {
	var c controls
	c.values[VolumeMod] = neutralVolume
	c.values[PanLeft] = 1
	c.values[PanRight] = 1
	for g := 0; g < NumGenerators; g++ {
		s := genSlots[g]
		c.values[s.sine] = 0.5
		c.values[s.triangle] = 0.5
		c.values[s.square] = 0.5
		c.values[s.noise] = 0.5
		c.values[s.slope] = 0.5
	}
	c.values[SustainVolumeMod] = MaxVolume
	return c
}

// initFromParams loads the patch values a note starts from. Pan is kept:
// it belongs to the voice, not the patch.
func (c *controls) initFromParams(p *Params) {
	c.values[VolumeMod] = neutralVolume
	c.values[TuningMod] = 0
	c.values[MasterFilterFreqMod] = 0
	c.values[MasterFilterQMod] = 0
	c.values[AttackTimeMod] = 0
	c.values[DecayTimeMod] = 0
	c.values[ReleaseTimeMod] = 0
	c.values[SustainVolumeMod] = p.SustainVolume
	for g := 0; g < NumGenerators; g++ {
		s := genSlots[g]
		gp := &p.Gen[g]
		c.values[s.sine] = gp.SineVolume
		c.values[s.triangle] = gp.TriangleVolume
		c.values[s.square] = gp.SquareVolume
		c.values[s.noise] = gp.NoiseVolume
		c.values[s.slope] = gp.TriangleSlope
		c.values[s.detune] = gp.SineDetune
		c.values[s.genFreqMod] = 0
		c.values[s.filterFreqMod] = 0
		c.values[s.filterQMod] = 0
		c.waveform[g] = gp.Waveform
		c.filterType[g] = gp.Filter.Type
	}
	c.masterFilter = p.MasterFilter.Type
}
