package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/cwbudde/algo-nesynth/dsp"
	"github.com/cwbudde/algo-nesynth/synth"
)

var debug = debuggo.Debug("nesynth:preset")

// File is the JSON schema for synth presets. Every field is optional and
// overrides the default patch only when present.
type File struct {
	MasterVolume  *float64 `json:"master_volume,omitempty"`
	MasterTuning  *float64 `json:"master_tuning,omitempty"`
	VelToLevel    *float64 `json:"vel_to_level,omitempty"`
	AttackTime    *float64 `json:"attack_time,omitempty"`
	DecayTime     *float64 `json:"decay_time,omitempty"`
	SustainVolume *float64 `json:"sustain_volume,omitempty"`
	ReleaseTime   *float64 `json:"release_time,omitempty"`
	TuningRange   string   `json:"tuning_range,omitempty"`
	Bypass        *bool    `json:"bypass,omitempty"`
	StereoMS      *float64 `json:"stereo_ms,omitempty"`

	Filter     *FilterSetting              `json:"filter,omitempty"`
	Generators map[string]GeneratorSetting `json:"generators,omitempty"`

	// Normalized holds host-style normalized values keyed by parameter
	// name. They are applied last.
	Normalized map[string]float64 `json:"normalized,omitempty"`
}

// GeneratorSetting is a partial override of one generator ("a" or "b").
type GeneratorSetting struct {
	Waveform       string         `json:"waveform,omitempty"`
	SineVolume     *float64       `json:"sine_volume,omitempty"`
	TriangleVolume *float64       `json:"triangle_volume,omitempty"`
	SquareVolume   *float64       `json:"square_volume,omitempty"`
	NoiseVolume    *float64       `json:"noise_volume,omitempty"`
	SineDetune     *float64       `json:"sine_detune,omitempty"`
	TriangleSlope  *float64       `json:"triangle_slope,omitempty"`
	GenFreq        *float64       `json:"gen_freq,omitempty"`
	Filter         *FilterSetting `json:"filter,omitempty"`
}

// FilterSetting is a partial filter override.
type FilterSetting struct {
	Type         string   `json:"type,omitempty"`
	Freq         *float64 `json:"freq,omitempty"`
	Q            *float64 `json:"q,omitempty"`
	FreqModDepth *float64 `json:"freq_mod_depth,omitempty"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug("loaded preset %s", path)
	return p, nil
}

// SaveJSON writes the full patch to path.
func SaveJSON(path string, p *synth.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	debug("saved preset %s", path)
	return nil
}

// FromParams converts a patch into a File with every field set.
func FromParams(p *synth.Params) *File {
	f := &File{
		MasterVolume:  ptr(p.MasterVolume),
		MasterTuning:  ptr(p.MasterTuning),
		VelToLevel:    ptr(p.VelToLevel),
		AttackTime:    ptr(p.AttackTime),
		DecayTime:     ptr(p.DecayTime),
		SustainVolume: ptr(p.SustainVolume),
		ReleaseTime:   ptr(p.ReleaseTime),
		TuningRange:   p.TuningRange.String(),
		Bypass:        ptr(p.Bypass),
		StereoMS:      ptr(p.StereoMS),
		Filter:        filterSetting(p.MasterFilter),
		Generators:    make(map[string]GeneratorSetting, synth.NumGenerators),
	}
	for g, name := range generatorNames {
		gp := p.Gen[g]
		f.Generators[name] = GeneratorSetting{
			Waveform:       gp.Waveform.String(),
			SineVolume:     ptr(gp.SineVolume),
			TriangleVolume: ptr(gp.TriangleVolume),
			SquareVolume:   ptr(gp.SquareVolume),
			NoiseVolume:    ptr(gp.NoiseVolume),
			SineDetune:     ptr(gp.SineDetune),
			TriangleSlope:  ptr(gp.TriangleSlope),
			GenFreq:        ptr(gp.GenFreq),
			Filter:         filterSetting(gp.Filter),
		}
	}
	return f
}

func filterSetting(fp synth.FilterParams) *FilterSetting {
	return &FilterSetting{
		Type:         fp.Type.String(),
		Freq:         ptr(fp.Freq),
		Q:            ptr(fp.Q),
		FreqModDepth: ptr(fp.FreqModDepth),
	}
}

func ptr[T any](v T) *T { return &v }

var generatorNames = [synth.NumGenerators]string{synth.GenA: "a", synth.GenB: "b"}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	units := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"master_volume", f.MasterVolume, &dst.MasterVolume},
		{"vel_to_level", f.VelToLevel, &dst.VelToLevel},
		{"attack_time", f.AttackTime, &dst.AttackTime},
		{"decay_time", f.DecayTime, &dst.DecayTime},
		{"sustain_volume", f.SustainVolume, &dst.SustainVolume},
		{"release_time", f.ReleaseTime, &dst.ReleaseTime},
		{"stereo_ms", f.StereoMS, &dst.StereoMS},
	}
	for _, u := range units {
		if err := setUnit(u.name, u.src, u.dst); err != nil {
			return err
		}
	}
	if err := setBipolar("master_tuning", f.MasterTuning, &dst.MasterTuning); err != nil {
		return err
	}
	if f.TuningRange != "" {
		r, err := parseTuningRange(f.TuningRange)
		if err != nil {
			return err
		}
		dst.TuningRange = r
	}
	if f.Bypass != nil {
		dst.Bypass = *f.Bypass
	}
	if err := applyFilter("filter", &dst.MasterFilter, f.Filter); err != nil {
		return err
	}

	keys := make([]string, 0, len(f.Generators))
	for k := range f.Generators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g, ok := generatorIndex(k)
		if !ok {
			return fmt.Errorf("invalid generators key %q (expected a or b)", k)
		}
		if err := applyGenerator(k, &dst.Gen[g], f.Generators[k]); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(f.Normalized))
	for k := range f.Normalized {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		id, ok := synth.ParamIDByName(name)
		if !ok {
			return fmt.Errorf("unknown normalized parameter %q", name)
		}
		v := f.Normalized[name]
		if v < 0 || v > 1 {
			return fmt.Errorf("normalized[%s] must be in [0,1]", name)
		}
		dst.SetNormalized(id, v)
	}
	return nil
}

func applyGenerator(key string, dst *synth.GeneratorParams, s GeneratorSetting) error {
	if s.Waveform != "" {
		w, err := parseWaveform(s.Waveform)
		if err != nil {
			return fmt.Errorf("generators[%s]: %w", key, err)
		}
		dst.Waveform = w
	}
	units := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"sine_volume", s.SineVolume, &dst.SineVolume},
		{"triangle_volume", s.TriangleVolume, &dst.TriangleVolume},
		{"square_volume", s.SquareVolume, &dst.SquareVolume},
		{"noise_volume", s.NoiseVolume, &dst.NoiseVolume},
		{"triangle_slope", s.TriangleSlope, &dst.TriangleSlope},
		{"gen_freq", s.GenFreq, &dst.GenFreq},
	}
	for _, u := range units {
		if err := setUnit("generators["+key+"]."+u.name, u.src, u.dst); err != nil {
			return err
		}
	}
	if err := setBipolar("generators["+key+"].sine_detune", s.SineDetune, &dst.SineDetune); err != nil {
		return err
	}
	return applyFilter("generators["+key+"].filter", &dst.Filter, s.Filter)
}

func applyFilter(field string, dst *synth.FilterParams, s *FilterSetting) error {
	if s == nil {
		return nil
	}
	if s.Type != "" {
		t, err := parseFilterType(s.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		dst.Type = t
	}
	if err := setUnit(field+".freq", s.Freq, &dst.Freq); err != nil {
		return err
	}
	if err := setUnit(field+".q", s.Q, &dst.Q); err != nil {
		return err
	}
	return setBipolar(field+".freq_mod_depth", s.FreqModDepth, &dst.FreqModDepth)
}

func setUnit(field string, src, dst *float64) error {
	if src == nil {
		return nil
	}
	if !(*src >= 0 && *src <= 1) {
		return fmt.Errorf("%s must be in [0,1]", field)
	}
	*dst = *src
	return nil
}

func setBipolar(field string, src, dst *float64) error {
	if src == nil {
		return nil
	}
	if !(*src >= -1 && *src <= 1) {
		return fmt.Errorf("%s must be in [-1,1]", field)
	}
	*dst = *src
	return nil
}

func generatorIndex(key string) (int, bool) {
	for g, name := range generatorNames {
		if strings.EqualFold(key, name) {
			return g, true
		}
	}
	return 0, false
}

func parseWaveform(s string) (synth.Waveform, error) {
	for w := synth.Waveform(0); w < synth.NumWaveforms; w++ {
		if strings.EqualFold(s, w.String()) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

func parseFilterType(s string) (dsp.FilterType, error) {
	for t := dsp.FilterType(0); t < dsp.NumFilterTypes; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown filter type %q", s)
}

func parseTuningRange(s string) (synth.TuningRange, error) {
	switch strings.ToLower(s) {
	case "octave":
		return synth.TuningRangeOctave, nil
	case "wide":
		return synth.TuningRangeWide, nil
	}
	return 0, fmt.Errorf("unknown tuning_range %q", s)
}
