package synth

// EventKind tells the engine what an Event carries.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventExpression
	EventParam
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventExpression:
		return "expression"
	case EventParam:
		return "param"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is a control message posted to the engine from another goroutine.
// Which fields matter depends on Kind.
type Event struct {
	Kind EventKind

	// NoteID addresses a voice; negative means "by pitch" for note-off and
	// "every voice" for expressions.
	NoteID   int32
	Pitch    int
	Velocity float64
	Tuning   float64
	// Offset is the sample position inside the next block.
	Offset int

	Expression ExpressionID
	Param      ParamID
	Value      float64
}

// NoteOnEvent builds a note-on event.
func NoteOnEvent(noteID int32, pitch int, velocity float64) Event {
	return Event{Kind: EventNoteOn, NoteID: noteID, Pitch: pitch, Velocity: velocity}
}

// NoteOffEvent builds a note-off event.
func NoteOffEvent(noteID int32, pitch int) Event {
	return Event{Kind: EventNoteOff, NoteID: noteID, Pitch: pitch}
}

// ExpressionEvent builds a note-expression event.
func ExpressionEvent(noteID int32, id ExpressionID, value float64) Event {
	return Event{Kind: EventExpression, NoteID: noteID, Expression: id, Value: value}
}

// ParamEvent builds a patch parameter change.
func ParamEvent(id ParamID, normalized float64) Event {
	return Event{Kind: EventParam, Param: id, Value: normalized}
}
