package synth

import "errors"

// State is a step of the sequencer state machine.
type State int

// Sequencer states. StateDone and StateFailed are terminal.
const (
	StateStart State = iota
	StateLanguagesSet
	StateVoicesLoaded
	StateScoreLoaded
	StateConditionBuilt
	StateSynthesized
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLanguagesSet:
		return "languages-set"
	case StateVoicesLoaded:
		return "voices-loaded"
	case StateScoreLoaded:
		return "score-loaded"
	case StateConditionBuilt:
		return "condition-built"
	case StateSynthesized:
		return "synthesized"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage identifies the step that failed.
type Stage int

// Sequencer stages in execution order.
const (
	StageNone Stage = iota
	StageLanguages
	StageVoices
	StageScore
	StageCondition
	StageStartTime
	StageSynthesis
)

func (s Stage) String() string {
	switch s {
	case StageLanguages:
		return "languages"
	case StageVoices:
		return "voices"
	case StageScore:
		return "score"
	case StageCondition:
		return "condition"
	case StageStartTime:
		return "start-time"
	case StageSynthesis:
		return "synthesis"
	default:
		return "none"
	}
}

// StageError reports which stage stopped the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches ErrSynthesisFailure for the synthesis stage and ErrSetupFailure for every other stage.
func (e *StageError) Is(target error) bool {
	if e.Stage == StageSynthesis {
		return target == ErrSynthesisFailure
	}

	return target == ErrSetupFailure
}

// StageOf returns the failed stage carried by err, or StageNone.
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}

	return StageNone
}
