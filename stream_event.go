package amigamod

import (
	"math"
)

// StreamEventKind is an event tag that should be used to differentiate between different event types.
// See StreamEvent docs for more info.
type StreamEventKind int

const (
	// EventUnknown is a sentinel value.
	// You should never receive an event of this kind.
	EventUnknown StreamEventKind = iota

	// EventNote is emitted every time a channel voice is triggered.
	// This includes the retriggers and the delayed notes.
	//
	// Use StreamEvent.NoteEventData to get the event data.
	EventNote

	// EventSync tells the application to update their time counter to the specified value.
	//
	// As any other event, the sync event has a Time field that you should use as a
	// description of when the counter should be updated.
	// Therefore, a sync event with Time=2.0 and data argument of 2.5 should
	// force the application to set its time counter to 2.5, but only if
	// it already reached a time counter value of 2.0.
	//
	// Use StreamEvent.SyncEventData to get the event data.
	EventSync

	// EventSongEnd is emitted when the playback goes back to an earlier song position.
	// This happens at the end of the order list or on a backward position jump.
	//
	// Use StreamEvent.SongEndEventData to get the event data.
	EventSongEnd
)

// StreamEvent holds a single Stream event data.
// This object is an argument to the Stream.SetEventHandler function.
//
// To handle the event correctly, you must first check its kind.
// Every kind has its own data getter method.
//
// Every event has a Time value. This is a moment when this event happened in
// relation to the track start (in seconds). The time is measured in the
// rendered frames, so it's exact even if the tempo changes.
type StreamEvent struct {
	Kind StreamEventKind

	// Channel is an event channel ID in [0, 3].
	// The channel-independent events have 0 here.
	Channel int

	// Time represents the playback offset in seconds.
	Time float64

	value uint64
}

// NoteEventData returns the event data if e.Kind=EventNote.
// The return values are: note, sample (slot index), volume.
// The note is 0 if the channel never had a note.
// The volume is in [0, 64].
func (e StreamEvent) NoteEventData() (note, sample, vol int) {
	return int(e.value & 0xff), int((e.value >> 8) & 0xff), int((e.value >> 16) & 0xff)
}

// SyncEventData returns the event data if e.Kind=EventSync.
// The return values are: a time to synchronize to.
func (e StreamEvent) SyncEventData() (t float64) {
	return math.Float64frombits(e.value)
}

// SongEndEventData returns the event data if e.Kind=EventSongEnd.
// The return values are: a song position the playback continues from.
func (e StreamEvent) SongEndEventData() (position int) {
	return int(e.value)
}

func makeNoteEventValue(note, sample, vol int) uint64 {
	return uint64(note&0xff) | uint64(sample&0xff)<<8 | uint64(vol&0xff)<<16
}
