package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-nesynth/synth"
)

// knobDef is one optimized dimension. Patch knobs carry a parameter id and
// a normalized range; render knobs (velocity, hold) have Param < 0.
type knobDef struct {
	Name  string
	Param synth.ParamID
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

const (
	knobVelocity = "render.velocity"
	knobHold     = "render.hold"
)

var knobGroups = map[string][]synth.ParamID{
	"envelope": {
		synth.ParamAttackTime,
		synth.ParamDecayTime,
		synth.ParamSustainVolume,
		synth.ParamReleaseTime,
		synth.ParamVelToLevel,
	},
	"generators": {
		synth.ParamSineVolumeA, synth.ParamTriangleVolumeA, synth.ParamSquareVolumeA,
		synth.ParamNoiseVolumeA, synth.ParamSineDetuneA, synth.ParamTriangleSlopeA,
		synth.ParamSineVolumeB, synth.ParamTriangleVolumeB, synth.ParamSquareVolumeB,
		synth.ParamNoiseVolumeB, synth.ParamSineDetuneB, synth.ParamTriangleSlopeB,
	},
	"filters": {
		synth.ParamFilterFreq, synth.ParamFilterQ,
		synth.ParamFilterFreqA, synth.ParamFilterQA,
		synth.ParamFilterFreqB, synth.ParamFilterQB,
	},
	"mix": {
		synth.ParamMasterVolume,
		synth.ParamStereoMS,
	},
}

var groupOrder = []string{"envelope", "generators", "filters", "mix", "render"}

// parseKnobGroups parses a comma-separated list of knob group names.
func parseKnobGroups(raw string) (map[string]bool, error) {
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := knobGroups[s]; !ok && s != "render" {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(groupOrder, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *synth.Params, velocity int, hold float64, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 32)
	vals := make([]float64, 0, 32)
	for _, g := range groupOrder {
		if !groups[g] {
			continue
		}
		if g == "render" {
			defs = append(defs,
				knobDef{Name: knobVelocity, Param: -1, Min: 1, Max: 127, IsInt: true},
				knobDef{Name: knobHold, Param: -1, Min: 0.05, Max: 4},
			)
			vals = append(vals, float64(velocity), hold)
			continue
		}
		for _, id := range knobGroups[g] {
			defs = append(defs, knobDef{Name: id.String(), Param: id, Min: 0, Max: 1})
			vals = append(vals, base.Normalized(id))
		}
	}
	for i := range vals {
		vals[i] = clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a patch with the candidate applied plus the render
// velocity and hold time.
func applyCandidate(base *synth.Params, velocity int, hold float64, defs []knobDef, c candidate) (*synth.Params, int, float64) {
	p := base.Clone()
	for i, d := range defs {
		v := c.Vals[i]
		switch {
		case d.Name == knobVelocity:
			velocity = int(math.Round(v))
		case d.Name == knobHold:
			hold = v
		case d.Param >= 0:
			p.SetNormalized(d.Param, v)
		}
	}
	velocity = min(max(velocity, 1), 127)
	hold = max(hold, 0.05)
	return p, velocity, hold
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
