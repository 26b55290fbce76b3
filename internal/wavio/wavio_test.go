package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteStereoThenReadMono(t *testing.T) {
	const sr = 48000
	n := 4800
	out := [2][]float32{make([]float32, n), make([]float32, n)}
	for i := 0; i < n; i++ {
		s := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
		out[0][i] = s
		out[1][i] = s / 2
	}
	path := filepath.Join(t.TempDir(), "sub", "out.wav")
	if err := WriteStereo(path, out, sr); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}

	mono, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if rate != sr || len(mono) != n {
		t.Fatalf("got %d frames at %d Hz", len(mono), rate)
	}
	want := Mono(out)
	for i := range mono {
		if math.Abs(mono[i]-want[i]) > 1e-3 {
			t.Fatalf("sample %d: got %f want %f", i, mono[i], want[i])
		}
	}
}

func TestWriteStereoRejectsMismatchedChannels(t *testing.T) {
	out := [2][]float32{make([]float32, 10), make([]float32, 9)}
	if err := WriteStereo(filepath.Join(t.TempDir(), "x.wav"), out, 48000); err == nil {
		t.Fatalf("expected error for mismatched channels")
	}
}

func TestReadMonoRejectsMissingFile(t *testing.T) {
	if _, _, err := ReadMono(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResampleIfNeededPassThrough(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := ResampleIfNeeded(in, 48000, 48000)
	if err != nil || &out[0] != &in[0] {
		t.Fatalf("same-rate resample should return the input")
	}
}

func TestPeakAndRMS(t *testing.T) {
	out := [2][]float32{{0.5, -1}, {0, 0.5}}
	if Peak(out) != 1 {
		t.Fatalf("peak=%f", Peak(out))
	}
	if want := math.Sqrt(1.5 / 4); math.Abs(RMS(out)-want) > 1e-9 {
		t.Fatalf("rms=%f want %f", RMS(out), want)
	}
}

func TestReadMonoKeepsQuietSamples(t *testing.T) {
	const sr = 48000
	n := 2400
	out := [2][]float32{make([]float32, n), make([]float32, n)}
	for i := 0; i < n; i++ {
		s := float32(0.01 * math.Sin(2*math.Pi*220*float64(i)/sr))
		out[0][i] = s
		out[1][i] = s
	}
	path := filepath.Join(t.TempDir(), "quiet.wav")
	if err := WriteStereo(path, out, sr); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}
	mono, _, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	var peak float64
	for _, v := range mono {
		peak = max(peak, math.Abs(v))
	}
	if math.Abs(peak-0.01) > 5e-4 {
		t.Fatalf("peak=%g want 0.01", peak)
	}
}
