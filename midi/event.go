package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// CCAllNotesOff is the channel-mode controller that silences every note.
const CCAllNotesOff uint8 = 123

// Event is one MIDI message placed at a sample offset inside an audio block.
type Event struct {
	Offset   int   // sample offset within the block
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 1-16
	Note     uint8 // note number, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
}

// AllNotesOff builds the "all notes off" controller event for channel.
func AllNotesOff(offset int, channel uint8) Event {
	return Event{Offset: offset, Type: CC, Channel: channel, Note: CCAllNotesOff}
}

// IsAllNotesOff reports whether e is an "all notes off" controller event.
func (e Event) IsAllNotesOff() bool {
	return e.Type == CC && e.Note == CCAllNotesOff
}

// Message converts the event to a wire message. Channel is 1-based here
// and 0-based on the wire.
func (e Event) Message() gomidi.Message {
	ch := e.Channel
	if ch > 0 {
		ch--
	}
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(ch, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(ch, e.Note)
	case CC:
		return gomidi.ControlChange(ch, e.Note, e.Velocity)
	}
	return nil
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("@%d NoteOn ch=%d note=%d vel=%d", e.Offset, e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("@%d NoteOff ch=%d note=%d", e.Offset, e.Channel, e.Note)
	case CC:
		return fmt.Sprintf("@%d CC ch=%d cc=%d val=%d", e.Offset, e.Channel, e.Note, e.Velocity)
	}
	return fmt.Sprintf("@%d type=%#x", e.Offset, e.Type)
}
