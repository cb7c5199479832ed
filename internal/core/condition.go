package core

import (
	"errors"
	"fmt"
)

var (
	// ErrOutputModeAlreadySet is returned when a condition already selected playback or save mode.
	ErrOutputModeAlreadySet = errors.New("output mode already set")
	// ErrSavePathEmpty is returned when save mode is requested without a path.
	ErrSavePathEmpty = errors.New("save file path cannot be empty")
)

// SynthCondition captures the output mode and label emission choice for one synthesis call.
// The output mode is write-once: playback and save-to-file exclude each other.
type SynthCondition struct {
	playFlag     bool
	saveFilePath string
	outputLabel  bool
}

// SetPlayFlag selects live playback.
func (c *SynthCondition) SetPlayFlag() error {
	if c.saveFilePath != "" {
		return fmt.Errorf("%w: save path %q", ErrOutputModeAlreadySet, c.saveFilePath)
	}

	c.playFlag = true

	return nil
}

// SetSaveFilePath selects rendering into a waveform file at path.
func (c *SynthCondition) SetSaveFilePath(path string) error {
	if path == "" {
		return ErrSavePathEmpty
	}

	if c.playFlag {
		return fmt.Errorf("%w: playback", ErrOutputModeAlreadySet)
	}

	if c.saveFilePath != "" && c.saveFilePath != path {
		return fmt.Errorf("%w: save path %q", ErrOutputModeAlreadySet, c.saveFilePath)
	}

	c.saveFilePath = path

	return nil
}

// SetOutputLabel enables label output.
func (c *SynthCondition) SetOutputLabel() {
	c.outputLabel = true
}

// UnsetOutputLabel disables label output.
func (c *SynthCondition) UnsetOutputLabel() {
	c.outputLabel = false
}

// PlayFlag reports whether playback mode is selected.
func (c *SynthCondition) PlayFlag() bool {
	return c.playFlag
}

// SaveFilePath returns the output path, empty unless save mode is selected.
func (c *SynthCondition) SaveFilePath() string {
	return c.saveFilePath
}

// OutputLabel reports whether label output is enabled.
func (c *SynthCondition) OutputLabel() bool {
	return c.outputLabel
}
