// Package wavio reads reference recordings and writes rendered audio for
// the command-line tools.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// DefaultBitDepth is the PCM depth rendered files are written with.
const DefaultBitDepth = 16

// ReadMono decodes a WAV file and averages its channels. The decoder
// already delivers samples in [-1,1].
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ResampleIfNeeded converts in from fromRate to toRate.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", fromRate, toRate, err)
	}
	return r.Process(in), nil
}

// WriteStereo writes planar left/right buffers as a 16-bit stereo file.
func WriteStereo(path string, out [2][]float32, sampleRate int) error {
	if len(out[0]) != len(out[1]) {
		return fmt.Errorf("left/right length mismatch: %d != %d", len(out[0]), len(out[1]))
	}
	data := make([]float32, len(out[0])*2)
	for i := range out[0] {
		data[i*2] = out[0][i]
		data[i*2+1] = out[1][i]
	}
	return write(path, data, 2, sampleRate)
}

// WriteMono writes a 16-bit mono file.
func WriteMono(path string, data []float32, sampleRate int) error {
	return write(path, data, 1, sampleRate)
}

func write(path string, data []float32, channels int, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, DefaultBitDepth, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: DefaultBitDepth,
	}
	return enc.Write(buf)
}

// Mono averages planar stereo into a float64 signal for analysis.
func Mono(out [2][]float32) []float64 {
	n := min(len(out[0]), len(out[1]))
	mono := make([]float64, n)
	for i := range mono {
		mono[i] = 0.5 * (float64(out[0][i]) + float64(out[1][i]))
	}
	return mono
}

// Peak returns the largest absolute sample of both channels.
func Peak(out [2][]float32) float64 {
	var peak float64
	for _, ch := range out {
		for _, s := range ch {
			peak = max(peak, math.Abs(float64(s)))
		}
	}
	return peak
}

// RMS returns the RMS of both channels together.
func RMS(out [2][]float32) float64 {
	var sum float64
	n := 0
	for _, ch := range out {
		for _, s := range ch {
			v := float64(s)
			sum += v * v
		}
		n += len(ch)
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
