//go:build !headless

package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultLatency is the device buffer length requested from oto.
const DefaultLatency = 20 * time.Millisecond

// Player plays a Source on the default audio device. Only one Player can
// exist per process.
type Player struct {
	ctx        *oto.Context
	player     *oto.Player
	stream     *Stream
	sampleRate int
	started    bool
	mu         sync.Mutex
}

// NewPlayer opens the audio device at sampleRate.
func NewPlayer(sampleRate int, src Source, latency time.Duration) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if latency <= 0 {
		latency = DefaultLatency
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	stream := NewStream(src, DefaultBlockSize)
	debug("oto context ready: %d Hz, latency %v", sampleRate, latency)
	return &Player{
		ctx:        ctx,
		player:     ctx.NewPlayer(stream),
		stream:     stream,
		sampleRate: sampleRate,
	}, nil
}

// SampleRate returns the device rate.
func (p *Player) SampleRate() int { return p.sampleRate }

// SetSource swaps the played source.
func (p *Player) SetSource(src Source) { p.stream.SetSource(src) }

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}

// IsStarted reports whether playback is running.
func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
