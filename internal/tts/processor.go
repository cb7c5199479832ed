package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/options"
)

// CommandEngine implements core.Engine by running a native sinsy renderer binary once
// with flags derived from the staged setup.
type CommandEngine struct {
	binaryPath string
	labelOut   io.Writer
	log        *logger.Logger
	state      engineState
}

// NewCommandEngine creates an engine that runs binaryPath. The binary's standard output,
// which carries label text, is copied to labelOut.
func NewCommandEngine(binaryPath string, labelOut io.Writer, log *logger.Logger) *CommandEngine {
	if labelOut == nil {
		labelOut = io.Discard
	}

	return &CommandEngine{
		binaryPath: binaryPath,
		labelOut:   labelOut,
		log:        log,
	}
}

// SetLanguages records the language codes and dictionary directory.
func (e *CommandEngine) SetLanguages(_ context.Context, languages []string, dictionaryDir string) error {
	if len(languages) == 0 {
		return ErrNoLanguages
	}

	e.state.languages = languages
	e.state.dictionaryDir = dictionaryDir

	return nil
}

// LoadVoices checks that the single voice model is readable.
func (e *CommandEngine) LoadVoices(_ context.Context, modelPaths []string) error {
	switch {
	case len(modelPaths) == 0:
		return ErrNoVoices
	case len(modelPaths) > 1:
		return fmt.Errorf("%w: got %d", ErrMultipleVoicesDenied, len(modelPaths))
	}

	_, err := readNonEmptyFile(modelPaths[0])
	if err != nil {
		return err
	}

	e.state.voicePaths = modelPaths

	return nil
}

// LoadScoreFromDocument checks that the score is readable.
func (e *CommandEngine) LoadScoreFromDocument(_ context.Context, path string) error {
	_, err := readNonEmptyFile(path)
	if err != nil {
		return err
	}

	e.state.scorePath = path

	return nil
}

// SetStartTime sets the playback start offset in seconds.
func (e *CommandEngine) SetStartTime(value string) error {
	seconds, err := parseStartTime(value)
	if err != nil {
		return err
	}

	e.state.startTime = seconds

	return nil
}

// OutputLabel toggles time-annotated labels.
func (e *CommandEngine) OutputLabel(enabled bool) {
	e.state.timedLabel = enabled
}

// OutputMonoLabel toggles monophone labels.
func (e *CommandEngine) OutputMonoLabel(enabled bool) {
	e.state.monoLabel = enabled
}

// Synthesize runs the renderer and blocks until it exits.
func (e *CommandEngine) Synthesize(ctx context.Context, condition *core.SynthCondition) error {
	err := e.state.ready()
	if err != nil {
		return err
	}

	args, err := e.buildArgs(condition)
	if err != nil {
		return err
	}

	e.state.synthesized = true

	var stderr bytes.Buffer

	// #nosec G204 -- the binary path comes from configuration, arguments are passed without a shell
	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	cmd.Stdout = e.labelOut
	cmd.Stderr = &stderr

	if e.log != nil {
		e.log.Info("Running renderer: %s %s", e.binaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	if err != nil {
		return fmt.Errorf("renderer binary execution failed: %w - output: %s", err, stderr.String())
	}

	return nil
}

// buildArgs maps the staged state onto the renderer's command line.
func (e *CommandEngine) buildArgs(condition *core.SynthCondition) ([]string, error) {
	args := []string{
		"-w", strings.Join(e.state.languages, ""),
		"-x", e.state.dictionaryDir,
		"-m", e.state.voicePaths[0],
	}

	switch {
	case condition.SaveFilePath() != "":
		args = append(args, "-o", condition.SaveFilePath())
	case !condition.PlayFlag():
		return nil, ErrNoOutputMode
	}

	if e.state.startTime > 0 {
		args = append(args, "-s", strconv.FormatFloat(e.state.startTime, 'f', -1, 64))
	}

	args = append(args, "-l", e.labelFlag(condition), e.state.scorePath)

	return args, nil
}

func (e *CommandEngine) labelFlag(condition *core.SynthCondition) string {
	mode := options.LabelNormal

	switch {
	case !condition.OutputLabel():
		mode = options.LabelDisabled
	case e.state.timedLabel:
		mode = options.LabelTimed
	case e.state.monoLabel:
		mode = options.LabelMono
	}

	return mode.Flag()
}
