// Package synth_test tests the synthesis sequencer.
package synth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/options"
	"github.com/book-expert/sinsy-service/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockEngine = errors.New("mock engine error")

// mockEngine records every call made by the sequencer.
type mockEngine struct {
	failOn         string
	calls          []string
	languages      []string
	dictionaryDir  string
	voices         []string
	score          string
	startTime      string
	timedLabel     bool
	monoLabel      bool
	condition      *core.SynthCondition
	synthesizeRuns int
}

func (m *mockEngine) step(name string) error {
	m.calls = append(m.calls, name)
	if m.failOn == name {
		return errMockEngine
	}

	return nil
}

func (m *mockEngine) SetLanguages(_ context.Context, languages []string, dictionaryDir string) error {
	m.languages = languages
	m.dictionaryDir = dictionaryDir

	return m.step("SetLanguages")
}

func (m *mockEngine) LoadVoices(_ context.Context, modelPaths []string) error {
	m.voices = modelPaths

	return m.step("LoadVoices")
}

func (m *mockEngine) LoadScoreFromDocument(_ context.Context, path string) error {
	m.score = path

	return m.step("LoadScoreFromDocument")
}

func (m *mockEngine) SetStartTime(value string) error {
	m.startTime = value

	return m.step("SetStartTime")
}

func (m *mockEngine) OutputLabel(enabled bool) {
	m.timedLabel = enabled
	m.calls = append(m.calls, "OutputLabel")
}

func (m *mockEngine) OutputMonoLabel(enabled bool) {
	m.monoLabel = enabled
	m.calls = append(m.calls, "OutputMonoLabel")
}

func (m *mockEngine) Synthesize(_ context.Context, condition *core.SynthCondition) error {
	m.condition = condition
	m.synthesizeRuns++

	return m.step("Synthesize")
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "synth-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

func resolve(t *testing.T, tokens ...string) *options.Options {
	t.Helper()

	opts, err := options.Resolve(tokens)
	require.NoError(t, err)

	return opts
}

func TestRun_PlaybackScenario(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	sequencer := synth.New(engine, createTestLogger(t))

	err := sequencer.Run(context.Background(), resolve(t, "-m", "voice.htsvoice", "score.xml"))
	require.NoError(t, err)

	assert.Equal(t, synth.StateDone, sequencer.State())
	assert.Equal(t, synth.StageNone, sequencer.FailedStage())
	assert.Equal(t, []string{
		"SetLanguages", "LoadVoices", "LoadScoreFromDocument",
		"OutputLabel", "OutputMonoLabel", "Synthesize",
	}, engine.calls)
	assert.Equal(t, []string{"j"}, engine.languages)
	assert.Equal(t, options.DefaultDictionaryDir, engine.dictionaryDir)
	assert.Equal(t, []string{"voice.htsvoice"}, engine.voices)
	assert.Equal(t, "score.xml", engine.score)
	assert.Equal(t, 1, engine.synthesizeRuns)

	require.NotNil(t, engine.condition)
	assert.True(t, engine.condition.PlayFlag())
	assert.Empty(t, engine.condition.SaveFilePath())
	assert.False(t, engine.condition.OutputLabel())
	assert.False(t, engine.timedLabel)
	assert.False(t, engine.monoLabel)
}

func TestRun_SaveWithTimedLabel(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	sequencer := synth.New(engine, nil)

	err := sequencer.Run(context.Background(),
		resolve(t, "-m", "voice.htsvoice", "-o", "out.wav", "-l", "t", "score.xml"))
	require.NoError(t, err)

	assert.False(t, engine.condition.PlayFlag())
	assert.Equal(t, "out.wav", engine.condition.SaveFilePath())
	assert.True(t, engine.condition.OutputLabel())
	assert.True(t, engine.timedLabel)
	assert.False(t, engine.monoLabel)
}

func TestRun_LabelModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode      string
		wantLabel bool
		wantTimed bool
		wantMono  bool
	}{
		{mode: "d", wantLabel: false, wantTimed: false, wantMono: false},
		{mode: "n", wantLabel: true, wantTimed: false, wantMono: false},
		{mode: "t", wantLabel: true, wantTimed: true, wantMono: false},
		{mode: "m", wantLabel: true, wantTimed: false, wantMono: true},
		{mode: "q", wantLabel: false, wantTimed: false, wantMono: false},
	}

	for _, testCase := range tests {
		t.Run("mode "+testCase.mode, func(t *testing.T) {
			t.Parallel()

			// Stale toggles must be reset by the run.
			engine := &mockEngine{timedLabel: true, monoLabel: true}

			err := synth.New(engine, nil).Run(context.Background(),
				resolve(t, "-m", "v.htsvoice", "-l", testCase.mode, "score.xml"))
			require.NoError(t, err)

			assert.Equal(t, testCase.wantLabel, engine.condition.OutputLabel())
			assert.Equal(t, testCase.wantTimed, engine.timedLabel)
			assert.Equal(t, testCase.wantMono, engine.monoLabel)
		})
	}
}

func TestRun_StartTimeApplied(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}

	err := synth.New(engine, nil).Run(context.Background(),
		resolve(t, "-m", "v.htsvoice", "-s", "3.5", "score.xml"))
	require.NoError(t, err)

	assert.Equal(t, "3.5", engine.startTime)
	assert.Equal(t, []string{
		"SetLanguages", "LoadVoices", "LoadScoreFromDocument",
		"OutputLabel", "OutputMonoLabel", "SetStartTime", "Synthesize",
	}, engine.calls)
}

func TestRun_StageFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		failOn      string
		wantStage   synth.Stage
		wantKind    error
		wantCalls   int
		wantMessage string
	}{
		{
			failOn: "SetLanguages", wantStage: synth.StageLanguages, wantKind: synth.ErrSetupFailure,
			wantCalls: 1, wantMessage: "failed to set languages : j, config dir : /usr/local/dic",
		},
		{
			failOn: "LoadVoices", wantStage: synth.StageVoices, wantKind: synth.ErrSetupFailure,
			wantCalls: 2, wantMessage: "failed to load voices : v.htsvoice",
		},
		{
			failOn: "LoadScoreFromDocument", wantStage: synth.StageScore, wantKind: synth.ErrSetupFailure,
			wantCalls: 3, wantMessage: "failed to load score from MusicXML file : score.xml",
		},
		{
			failOn: "SetStartTime", wantStage: synth.StageStartTime, wantKind: synth.ErrSetupFailure,
			wantCalls: 6, wantMessage: "failed to set start time : 1.0",
		},
		{
			failOn: "Synthesize", wantStage: synth.StageSynthesis, wantKind: synth.ErrSynthesisFailure,
			wantCalls: 7, wantMessage: "failed to synthesize",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.failOn, func(t *testing.T) {
			t.Parallel()

			engine := &mockEngine{failOn: testCase.failOn}
			sequencer := synth.New(engine, nil)

			err := sequencer.Run(context.Background(), resolve(t, "-m", "v.htsvoice", "-s", "1.0", "score.xml"))
			require.Error(t, err)

			require.ErrorIs(t, err, testCase.wantKind)
			require.ErrorIs(t, err, errMockEngine)
			assert.Contains(t, err.Error(), testCase.wantMessage)
			assert.Equal(t, testCase.wantStage, synth.StageOf(err))
			assert.Equal(t, testCase.wantStage, sequencer.FailedStage())
			assert.Equal(t, synth.StateFailed, sequencer.State())
			assert.Len(t, engine.calls, testCase.wantCalls)
			assert.Equal(t, testCase.failOn, engine.calls[len(engine.calls)-1])
		})
	}
}

func TestRun_SetupFailureIsNotSynthesisFailure(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{failOn: "LoadVoices"}

	err := synth.New(engine, nil).Run(context.Background(), resolve(t, "-m", "v.htsvoice", "score.xml"))
	require.ErrorIs(t, err, synth.ErrSetupFailure)
	assert.NotErrorIs(t, err, synth.ErrSynthesisFailure)
	assert.Zero(t, engine.synthesizeRuns)
}

func TestRun_SingleUse(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	sequencer := synth.New(engine, nil)
	opts := resolve(t, "-m", "v.htsvoice", "score.xml")

	require.NoError(t, sequencer.Run(context.Background(), opts))
	require.ErrorIs(t, sequencer.Run(context.Background(), opts), synth.ErrAlreadyRun)
	assert.Equal(t, 1, engine.synthesizeRuns)
}

func TestRun_NilOptions(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}

	require.ErrorIs(t, synth.New(engine, nil).Run(context.Background(), nil), synth.ErrNilOptions)
	assert.Empty(t, engine.calls)
}
