// Package synth sequences the engine setup stages and the single synthesis call.
package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/options"
)

var (
	// ErrSetupFailure matches failures in any stage before synthesis.
	ErrSetupFailure = errors.New("setup failure")
	// ErrSynthesisFailure matches a failure reported by the synthesis call itself.
	ErrSynthesisFailure = errors.New("synthesis failure")
	// ErrAlreadyRun is returned when Run is called on a sequencer that has already run.
	ErrAlreadyRun = errors.New("sequencer has already run")
	// ErrNilOptions is returned when Run receives no configuration.
	ErrNilOptions = errors.New("options cannot be nil")
)

// Log messages.
const (
	logFmtLanguagesSet   = "Languages set: %s (dictionary %s)"
	logFmtVoicesLoaded   = "Voices loaded: %v"
	logFmtScoreLoaded    = "Score loaded: %s"
	logFmtConditionBuilt = "Synthesis condition built: play=%t save=%q label=%s"
	logFmtStartTimeSet   = "Start time set: %s"
	logFmtStageFailed    = "Stage %s failed: %v"
	logSynthesisStarted  = "Synthesis started"
	logSynthesisFinished = "Synthesis finished"
)

// Sequencer drives one engine through the setup stages and a single synthesis call.
// A Sequencer is single-use and owns its engine for the duration of Run.
type Sequencer struct {
	engine      core.Engine
	log         *logger.Logger
	state       State
	failedStage Stage
}

// New creates a Sequencer for engine. log may be nil.
func New(engine core.Engine, log *logger.Logger) *Sequencer {
	return &Sequencer{
		engine: engine,
		log:    log,
		state:  StateStart,
	}
}

// State returns the current state of the sequencer.
func (s *Sequencer) State() State {
	return s.state
}

// FailedStage returns the stage that failed, or StageNone.
func (s *Sequencer) FailedStage() Stage {
	return s.failedStage
}

// Run executes every stage in order and stops at the first failure.
// Stages that already completed are not unwound.
func (s *Sequencer) Run(ctx context.Context, opts *options.Options) error {
	if s.state != StateStart {
		return ErrAlreadyRun
	}

	if opts == nil {
		return ErrNilOptions
	}

	err := s.engine.SetLanguages(ctx, opts.Languages, opts.DictionaryDir)
	if err != nil {
		return s.fail(StageLanguages, fmt.Errorf("failed to set languages : %s, config dir : %s: %w",
			opts.LanguageCodes(), opts.DictionaryDir, err))
	}

	s.advance(StateLanguagesSet, logFmtLanguagesSet, opts.LanguageCodes(), opts.DictionaryDir)

	err = s.engine.LoadVoices(ctx, opts.VoiceModels())
	if err != nil {
		return s.fail(StageVoices, fmt.Errorf("failed to load voices : %s: %w", opts.VoiceModel, err))
	}

	s.advance(StateVoicesLoaded, logFmtVoicesLoaded, opts.VoiceModels())

	err = s.engine.LoadScoreFromDocument(ctx, opts.ScoreFile)
	if err != nil {
		return s.fail(StageScore, fmt.Errorf("failed to load score from MusicXML file : %s: %w", opts.ScoreFile, err))
	}

	s.advance(StateScoreLoaded, logFmtScoreLoaded, opts.ScoreFile)

	condition, err := s.buildCondition(opts)
	if err != nil {
		return s.fail(StageCondition, fmt.Errorf("failed to build synthesis condition: %w", err))
	}

	s.advance(StateConditionBuilt, logFmtConditionBuilt,
		condition.PlayFlag(), condition.SaveFilePath(), opts.LabelMode)

	if opts.StartTime != "" {
		err = s.engine.SetStartTime(opts.StartTime)
		if err != nil {
			return s.fail(StageStartTime, fmt.Errorf("failed to set start time : %s: %w", opts.StartTime, err))
		}

		s.logInfo(logFmtStartTimeSet, opts.StartTime)
	}

	s.logInfo(logSynthesisStarted)

	err = s.engine.Synthesize(ctx, condition)
	if err != nil {
		return s.fail(StageSynthesis, fmt.Errorf("failed to synthesize: %w", err))
	}

	s.state = StateSynthesized
	s.logInfo(logSynthesisFinished)
	s.state = StateDone

	return nil
}

// buildCondition selects the output mode and puts every engine label toggle into a known state.
func (s *Sequencer) buildCondition(opts *options.Options) (*core.SynthCondition, error) {
	condition := &core.SynthCondition{}

	if opts.PlaybackMode() {
		err := condition.SetPlayFlag()
		if err != nil {
			return nil, fmt.Errorf("failed to select playback: %w", err)
		}
	} else {
		err := condition.SetSaveFilePath(opts.OutputAudioPath)
		if err != nil {
			return nil, fmt.Errorf("failed to select output file: %w", err)
		}
	}

	if opts.LabelMode == options.LabelDisabled {
		condition.UnsetOutputLabel()
	} else {
		condition.SetOutputLabel()
	}

	s.engine.OutputLabel(opts.LabelMode == options.LabelTimed)
	s.engine.OutputMonoLabel(opts.LabelMode == options.LabelMono)

	return condition, nil
}

func (s *Sequencer) advance(next State, format string, args ...any) {
	s.state = next
	s.logInfo(format, args...)
}

func (s *Sequencer) fail(stage Stage, err error) error {
	s.state = StateFailed
	s.failedStage = stage

	if s.log != nil {
		s.log.Error(logFmtStageFailed, stage, err)
	}

	return &StageError{Stage: stage, Err: err}
}

func (s *Sequencer) logInfo(format string, args ...any) {
	if s.log != nil {
		s.log.Info(format, args...)
	}
}
