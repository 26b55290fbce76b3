package sequence

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-nesynth/synth"
)

// Controller numbers mapped onto note expressions.
const (
	ccVolume     = 7
	ccPan        = 10
	ccBrightness = 74
)

// Translator turns MIDI channel messages into engine events. It hands out
// note ids so that a note-off reaches the voice its note-on started, even
// when the same key is retriggered.
type Translator struct {
	nextID int32
	held   map[uint16][]int32
}

// NewTranslator creates a Translator with no held notes.
func NewTranslator() *Translator {
	return &Translator{held: make(map[uint16][]int32)}
}

func noteKey(ch, key uint8) uint16 { return uint16(ch)<<8 | uint16(key) }

// Translate converts one message. Messages without a synth meaning yield
// ok == false.
func (t *Translator) Translate(msg midi.Message) (ev synth.Event, ok bool) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		id := t.nextID
		t.nextID++
		if t.nextID < 0 {
			t.nextID = 0
		}
		k := noteKey(ch, key)
		t.held[k] = append(t.held[k], id)
		ev = synth.NoteOnEvent(id, int(key), float64(vel)/127)
		return ev, true

	case msg.GetNoteEnd(&ch, &key):
		k := noteKey(ch, key)
		ids := t.held[k]
		if len(ids) == 0 {
			return synth.NoteOffEvent(-1, int(key)), true
		}
		id := ids[0]
		if len(ids) == 1 {
			delete(t.held, k)
		} else {
			t.held[k] = ids[1:]
		}
		return synth.NoteOffEvent(id, int(key)), true

	case msg.GetPitchBend(&ch, &rel, &abs):
		return synth.ExpressionEvent(-1, synth.TuningExpression, float64(abs)/16383), true

	case msg.GetControlChange(&ch, &cc, &val):
		v := float64(val) / 127
		switch cc {
		case ccVolume:
			return synth.ExpressionEvent(-1, synth.VolumeExpression, v), true
		case ccPan:
			return synth.ExpressionEvent(-1, synth.PanExpression, v), true
		case ccBrightness:
			return synth.ExpressionEvent(-1, synth.FilterFreqModExpression, v), true
		}
	}
	return synth.Event{}, false
}

// Held returns the number of notes still waiting for their note-off.
func (t *Translator) Held() int {
	n := 0
	for _, ids := range t.held {
		n += len(ids)
	}
	return n
}
