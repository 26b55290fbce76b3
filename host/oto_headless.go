//go:build headless

package host

import (
	"fmt"
	"time"
)

const DefaultLatency = 20 * time.Millisecond

// Player is a no-device stand-in. The stream is exposed through Read so
// tests and CI can pull audio without a sound card.
type Player struct {
	stream     *Stream
	sampleRate int
	started    bool
}

func NewPlayer(sampleRate int, src Source, latency time.Duration) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	return &Player{stream: NewStream(src, DefaultBlockSize), sampleRate: sampleRate}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

func (p *Player) SetSource(src Source) { p.stream.SetSource(src) }

func (p *Player) Read(b []byte) (int, error) { return p.stream.Read(b) }

func (p *Player) Start() { p.started = true }

func (p *Player) Close() error {
	p.started = false
	return nil
}

func (p *Player) IsStarted() bool { return p.started }
