//go:build jack

package host

import (
	"fmt"

	"github.com/xthexder/go-jack"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-nesynth/sequence"
	"github.com/cwbudde/algo-nesynth/synth"
)

// JackClient runs an engine inside the JACK process callback with a MIDI
// input and a stereo output.
type JackClient struct {
	client     *jack.Client
	engine     *synth.Engine[float32]
	translator *sequence.Translator
	midiIn     *jack.Port
	out        [2]*jack.Port
	buf        planar
}

// NewJackClient registers a client named name. The engine is switched to
// the server's sample rate.
func NewJackClient(name string, e *synth.Engine[float32]) (*JackClient, error) {
	client, status := jack.ClientOpen(name, jack.NoStartServer)
	if client == nil || status != 0 {
		return nil, fmt.Errorf("open jack client %q: status %d", name, status)
	}
	if err := e.SetSampleRate(float64(client.GetSampleRate())); err != nil {
		client.Close()
		return nil, err
	}

	jc := &JackClient{
		client:     client,
		engine:     e,
		translator: sequence.NewTranslator(),
	}
	jc.midiIn = client.PortRegister("midi_in", jack.DEFAULT_MIDI_TYPE, jack.PortIsInput, 0)
	jc.out[0] = client.PortRegister("out_l", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	jc.out[1] = client.PortRegister("out_r", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if jc.midiIn == nil || jc.out[0] == nil || jc.out[1] == nil {
		client.Close()
		return nil, fmt.Errorf("register jack ports for %q", name)
	}
	jc.buf = newPlanar(int(client.GetBufferSize()))
	if code := client.SetBufferSizeCallback(jc.bufferSize); code != 0 {
		client.Close()
		return nil, fmt.Errorf("set jack buffer size callback: status %d", code)
	}
	if code := client.SetProcessCallback(jc.process); code != 0 {
		client.Close()
		return nil, fmt.Errorf("set jack process callback: status %d", code)
	}
	debug("jack client %q at %d Hz", name, client.GetSampleRate())
	return jc, nil
}

// bufferSize runs outside the process thread whenever the server changes
// its period, so the render buffer never grows inside process.
func (jc *JackClient) bufferSize(nframes uint32) int {
	jc.buf.resize(int(nframes))
	debug("jack buffer size %d", nframes)
	return 0
}

func (jc *JackClient) process(nframes uint32) int {
	n := int(nframes)
	for _, ev := range jc.midiIn.GetMidiEvents(nframes) {
		sev, ok := jc.translator.Translate(midi.Message(ev.Buffer))
		if !ok {
			continue
		}
		sev.Offset = int(ev.Time)
		jc.engine.Apply(sev)
	}

	blk := jc.buf.block(n)
	m := len(blk[0])
	jc.engine.Process(blk, m)

	outL := jc.out[0].GetBuffer(nframes)
	outR := jc.out[1].GetBuffer(nframes)
	for i := 0; i < m; i++ {
		outL[i] = jack.AudioSample(blk[0][i])
		outR[i] = jack.AudioSample(blk[1][i])
	}
	clear(outL[m:])
	clear(outR[m:])
	return 0
}

// Start activates the client.
func (jc *JackClient) Start() error {
	if code := jc.client.Activate(); code != 0 {
		return fmt.Errorf("activate jack client: status %d", code)
	}
	return nil
}

// Close deactivates and closes the client.
func (jc *JackClient) Close() error {
	jc.client.Deactivate()
	if code := jc.client.Close(); code != 0 {
		return fmt.Errorf("close jack client: status %d", code)
	}
	return nil
}
