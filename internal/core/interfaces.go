// Package core defines the engine contract and shared types for the singing synthesis service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Engine is the external singing-voice synthesis engine driven by the sequencer.
// Setup calls must happen in the order SetLanguages, LoadVoices, LoadScoreFromDocument
// and Synthesize is called at most once per engine.
type Engine interface {
	SetLanguages(ctx context.Context, languages []string, dictionaryDir string) error
	LoadVoices(ctx context.Context, modelPaths []string) error
	LoadScoreFromDocument(ctx context.Context, path string) error
	SetStartTime(value string) error
	// OutputLabel toggles time-annotated label emission.
	OutputLabel(enabled bool)
	// OutputMonoLabel toggles monophone label emission.
	OutputMonoLabel(enabled bool)
	Synthesize(ctx context.Context, condition *SynthCondition) error
}
