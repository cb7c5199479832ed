package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/audio"
	"github.com/book-expert/sinsy-service/internal/core"
)

const (
	// File and directory permissions.
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrNoLanguages          = errors.New("at least one language is required")
	ErrUnsupportedLanguage  = errors.New("unsupported language")
	ErrNoVoices             = errors.New("at least one voice model is required")
	ErrEmptyFile            = errors.New("file is empty")
	ErrNotReady             = errors.New("engine setup is incomplete")
	ErrInvalidStartTime     = errors.New("start time must be a non-negative number of seconds")
	ErrNoOutputMode         = errors.New("condition selects neither playback nor an output file")
	ErrPlaybackUnavailable  = errors.New("no audio player configured")
	ErrAlreadySynthesized   = errors.New("engine has already synthesized")
	ErrMultipleVoicesDenied = errors.New("renderer binary accepts a single voice model")
)

// Log formats.
const (
	logFmtLanguagesConfirmed = "Synthesis service accepted languages %v with dictionary %s"
	logFmtVoiceStaged        = "Voice model staged: %s (%d bytes)"
	logFmtScoreStaged        = "Score staged: %s (%d bytes)"
	logFmtAudioSaved         = "Generated audio: %s (%d bytes)"
	logFmtAudioPlayed        = "Played audio: %d Hz, %d channels, %d bytes"
	logFmtLabelWritten       = "Wrote %d bytes of label output"
)

// supportedLanguages are the language codes the synthesis engine knows.
var supportedLanguages = map[string]string{
	"j": "Japanese",
	"c": "Chinese",
}

// engineState is the setup state shared by every engine adapter.
type engineState struct {
	languages     []string
	dictionaryDir string
	voicePaths    []string
	scorePath     string
	startTime     float64
	timedLabel    bool
	monoLabel     bool
	synthesized   bool
}

func (s *engineState) ready() error {
	if s.synthesized {
		return ErrAlreadySynthesized
	}

	if len(s.languages) == 0 || len(s.voicePaths) == 0 || s.scorePath == "" {
		return ErrNotReady
	}

	return nil
}

// HTTPEngine implements core.Engine against a remote singing synthesis service.
// Voice and score files are read locally and shipped with the single synthesis request.
type HTTPEngine struct {
	client   *HTTPClient
	player   audio.Player
	labelOut io.Writer
	log      *logger.Logger

	state  engineState
	voices []Voice
	score  []byte
}

// NewHTTPEngine creates an engine that talks to client. player is used for playback mode
// and may be nil when only file output is needed; label text goes to labelOut.
func NewHTTPEngine(client *HTTPClient, player audio.Player, labelOut io.Writer, log *logger.Logger) *HTTPEngine {
	if labelOut == nil {
		labelOut = io.Discard
	}

	return &HTTPEngine{
		client:   client,
		player:   player,
		labelOut: labelOut,
		log:      log,
	}
}

// SetLanguages validates the language codes and confirms them with the service.
func (e *HTTPEngine) SetLanguages(ctx context.Context, languages []string, dictionaryDir string) error {
	err := validateLanguages(languages)
	if err != nil {
		return err
	}

	err = e.client.CheckLanguages(ctx, LanguagesRequest{Languages: languages, DictionaryDir: dictionaryDir})
	if err != nil {
		return fmt.Errorf("synthesis service rejected languages: %w", err)
	}

	e.state.languages = languages
	e.state.dictionaryDir = dictionaryDir
	e.logInfo(logFmtLanguagesConfirmed, languages, dictionaryDir)

	return nil
}

// LoadVoices reads every voice model file.
func (e *HTTPEngine) LoadVoices(_ context.Context, modelPaths []string) error {
	if len(modelPaths) == 0 {
		return ErrNoVoices
	}

	voices := make([]Voice, 0, len(modelPaths))

	for _, path := range modelPaths {
		data, err := readNonEmptyFile(path)
		if err != nil {
			return err
		}

		voices = append(voices, Voice{Name: filepath.Base(path), Data: data})
		e.logInfo(logFmtVoiceStaged, path, len(data))
	}

	e.voices = voices
	e.state.voicePaths = modelPaths

	return nil
}

// LoadScoreFromDocument reads the score file.
func (e *HTTPEngine) LoadScoreFromDocument(_ context.Context, path string) error {
	data, err := readNonEmptyFile(path)
	if err != nil {
		return err
	}

	e.score = data
	e.state.scorePath = path
	e.logInfo(logFmtScoreStaged, path, len(data))

	return nil
}

// SetStartTime sets the playback start offset in seconds.
func (e *HTTPEngine) SetStartTime(value string) error {
	seconds, err := parseStartTime(value)
	if err != nil {
		return err
	}

	e.state.startTime = seconds

	return nil
}

// OutputLabel toggles time-annotated labels.
func (e *HTTPEngine) OutputLabel(enabled bool) {
	e.state.timedLabel = enabled
}

// OutputMonoLabel toggles monophone labels.
func (e *HTTPEngine) OutputMonoLabel(enabled bool) {
	e.state.monoLabel = enabled
}

// Synthesize renders the staged score and either saves or plays the result.
func (e *HTTPEngine) Synthesize(ctx context.Context, condition *core.SynthCondition) error {
	err := e.state.ready()
	if err != nil {
		return err
	}

	if !condition.PlayFlag() && condition.SaveFilePath() == "" {
		return ErrNoOutputMode
	}

	if condition.PlayFlag() && e.player == nil {
		return ErrPlaybackUnavailable
	}

	e.state.synthesized = true

	result, err := e.client.Synthesize(ctx, SynthesisRequest{
		Languages:     e.state.languages,
		DictionaryDir: e.state.dictionaryDir,
		Voices:        e.voices,
		ScoreName:     filepath.Base(e.state.scorePath),
		Score:         e.score,
		StartTime:     e.state.startTime,
		OutputLabel:   condition.OutputLabel(),
		TimedLabel:    e.state.timedLabel,
		MonoLabel:     e.state.monoLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to render score: %w", err)
	}

	format, pcm, err := audio.ParseWAV(result.Audio)
	if err != nil {
		return fmt.Errorf("synthesis service returned invalid audio: %w", err)
	}

	if condition.OutputLabel() && result.Label != "" {
		written, writeErr := io.WriteString(e.labelOut, result.Label)
		if writeErr != nil {
			return fmt.Errorf("failed to write label output: %w", writeErr)
		}

		e.logInfo(logFmtLabelWritten, written)
	}

	if condition.PlayFlag() {
		err = e.player.Play(ctx, result.Audio)
		if err != nil {
			return fmt.Errorf("failed to play audio: %w", err)
		}

		e.logInfo(logFmtAudioPlayed, format.SampleRate, format.Channels, len(pcm))

		return nil
	}

	return e.save(condition.SaveFilePath(), result.Audio)
}

func (e *HTTPEngine) save(outputPath string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(outputPath), dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = os.WriteFile(outputPath, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	e.logInfo(logFmtAudioSaved, outputPath, len(data))

	return nil
}

func (e *HTTPEngine) logInfo(format string, args ...any) {
	if e.log != nil {
		e.log.Info(format, args...)
	}
}

func validateLanguages(languages []string) error {
	if len(languages) == 0 {
		return ErrNoLanguages
	}

	for _, code := range languages {
		if _, ok := supportedLanguages[code]; !ok {
			return fmt.Errorf("%w: '%s'", ErrUnsupportedLanguage, code)
		}
	}

	return nil
}

func parseStartTime(value string) (float64, error) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStartTime, value)
	}

	return seconds, nil
}

func readNonEmptyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return data, nil
}
