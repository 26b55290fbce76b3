package host

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cwbudde/algo-nesynth/synth"
)

type rampSource struct {
	next   float32
	blocks []int
}

func (s *rampSource) Process(out [2][]float32, n int) bool {
	s.blocks = append(s.blocks, n)
	for i := 0; i < n; i++ {
		out[0][i] = s.next
		out[1][i] = -s.next
		s.next++
	}
	return true
}

func frame(p []byte, i int) (float32, float32) {
	l := math.Float32frombits(binary.LittleEndian.Uint32(p[i*frameBytes:]))
	r := math.Float32frombits(binary.LittleEndian.Uint32(p[i*frameBytes+4:]))
	return l, r
}

func TestStreamInterleavesFrames(t *testing.T) {
	src := &rampSource{}
	s := NewStream(src, 4)
	p := make([]byte, 10*frameBytes)
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read=%d,%v", n, err)
	}
	for i := 0; i < 10; i++ {
		l, r := frame(p, i)
		if l != float32(i) || r != -float32(i) {
			t.Fatalf("frame %d = (%f,%f)", i, l, r)
		}
	}
	if len(src.blocks) != 3 || src.blocks[0] != 4 || src.blocks[2] != 2 {
		t.Fatalf("blocks=%v want [4 4 2]", src.blocks)
	}
}

func TestStreamZeroesPartialFrame(t *testing.T) {
	s := NewStream(&rampSource{next: 5}, 0)
	p := make([]byte, frameBytes+3)
	for i := range p {
		p[i] = 0xff
	}
	if n, _ := s.Read(p); n != len(p) {
		t.Fatalf("Read=%d", n)
	}
	if l, _ := frame(p, 0); l != 5 {
		t.Fatalf("first frame=%f", l)
	}
	for _, b := range p[frameBytes:] {
		if b != 0 {
			t.Fatalf("trailing bytes not cleared: %v", p[frameBytes:])
		}
	}
}

func TestStreamNilSourceIsSilent(t *testing.T) {
	s := NewStream(nil, 16)
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if n, err := s.Read(p); err != nil || n != len(p) {
		t.Fatalf("Read=%d,%v", n, err)
	}
	for _, b := range p {
		if b != 0 {
			t.Fatalf("expected silence, got %v", p)
		}
	}
	s.SetSource(&rampSource{next: 1})
	s.Read(p)
	if l, _ := frame(p, 0); l != 1 {
		t.Fatalf("swapped source not used")
	}
}

func TestStreamPlaysEngine(t *testing.T) {
	e, err := synth.NewEngine[float32](synth.EngineConfig{SampleRate: 48000})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if !e.Post(synth.NoteOnEvent(1, 69, 1)) {
		t.Fatalf("queue full")
	}
	s := NewStream(e, 128)
	p := make([]byte, 4800*frameBytes)
	s.Read(p)

	var energy float64
	for i := 0; i < 4800; i++ {
		l, r := frame(p, i)
		if math.IsNaN(float64(l)) || math.IsNaN(float64(r)) {
			t.Fatalf("NaN at frame %d", i)
		}
		energy += float64(l*l + r*r)
	}
	if energy == 0 {
		t.Fatalf("engine produced silence through the stream")
	}
}

func TestPlanarBlockNeverExceedsCapacity(t *testing.T) {
	b := newPlanar(64)
	if blk := b.block(256); len(blk[0]) != 64 || len(blk[1]) != 64 {
		t.Fatalf("block over capacity: %d/%d frames", len(blk[0]), len(blk[1]))
	}

	first := &b[0][0]
	b.resize(32)
	if &b[0][0] != first {
		t.Fatalf("shrinking resize reallocated")
	}
	b.resize(256)
	if blk := b.block(256); len(blk[0]) != 256 || len(blk[1]) != 256 {
		t.Fatalf("resized block: %d/%d frames", len(blk[0]), len(blk[1]))
	}
	if blk := b.block(10); len(blk[0]) != 10 {
		t.Fatalf("short block: %d frames", len(blk[0]))
	}
}
