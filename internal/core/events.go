package core

import "github.com/book-expert/events"

// SynthesisRequestedEvent asks the service to render a score stored in the object store.
// Args carries extra CLI option tokens such as "-l", "t" or "-w", "c".
type SynthesisRequestedEvent struct {
	Header   events.EventHeader `json:"header"`
	ScoreKey string             `json:"score_key"`
	VoiceKey string             `json:"voice_key"`
	Args     []string           `json:"args,omitempty"`
}

// SynthesisCompletedEvent is the reply to a SynthesisRequestedEvent.
type SynthesisCompletedEvent struct {
	Header   events.EventHeader `json:"header"`
	AudioKey string             `json:"audio_key,omitempty"`
	LabelKey string             `json:"label_key,omitempty"`
	Error    string             `json:"error,omitempty"`
}
