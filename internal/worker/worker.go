// Package worker provides a NATS worker that renders singing synthesis jobs.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/options"
	"github.com/book-expert/sinsy-service/internal/synth"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	defaultJobTimeout = 15 * time.Minute
	jobDirPattern     = "sinsy-job-*"
	voiceFileName     = "voice.htsvoice"
	outputFileName    = "out.wav"
	audioKeySuffix    = ".wav"
	labelKeySuffix    = ".lab"
)

var (
	// ErrNoConnection indicates that the worker was created without a NATS connection.
	ErrNoConnection = errors.New("nats connection cannot be nil")
	// ErrNoStore indicates that the worker was created without an object store.
	ErrNoStore = errors.New("object store cannot be nil")
	// ErrNoEngineFactory indicates that the worker cannot build engines.
	ErrNoEngineFactory = errors.New("engine factory cannot be nil")
	// ErrScoreKeyEmpty indicates that a request names no score.
	ErrScoreKeyEmpty = errors.New("score key cannot be empty")
	// ErrVoiceKeyEmpty indicates that a request names no voice model.
	ErrVoiceKeyEmpty = errors.New("voice key cannot be empty")
	// ErrHelpNotSupported indicates that a request asked for usage text instead of a render.
	ErrHelpNotSupported = errors.New("help option is not supported in synthesis requests")
	// ErrReservedOption indicates that a request tried to set -m or -o, which the worker owns.
	ErrReservedOption = errors.New("options -m and -o are set by the service")
)

// EngineFactory builds a fresh engine for one job. Label text must be written to labelOut.
type EngineFactory func(labelOut io.Writer) core.Engine

// Settings holds the worker's per-job configuration.
type Settings struct {
	Subject    string
	WorkDir    string
	Defaults   options.Defaults
	JobTimeout time.Duration
}

// NatsWorker listens for synthesis requests on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	store          core.ObjectStore
	newEngine      EngineFactory
	settings       Settings
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	store core.ObjectStore,
	newEngine EngineFactory,
	settings Settings,
	log *logger.Logger,
) (*NatsWorker, error) {
	switch {
	case natsConnection == nil:
		return nil, ErrNoConnection
	case store == nil:
		return nil, ErrNoStore
	case newEngine == nil:
		return nil, ErrNoEngineFactory
	}

	if settings.JobTimeout <= 0 {
		settings.JobTimeout = defaultJobTimeout
	}

	if settings.WorkDir == "" {
		settings.WorkDir = os.TempDir()
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		store:          store,
		newEngine:      newEngine,
		settings:       settings,
		log:            log,
	}, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.settings.Subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.settings.Subject, err)
	}

	w.log.Info("Listening for synthesis requests on %s", w.settings.Subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.settings.JobTimeout)
	defer cancel()

	reply := &core.SynthesisCompletedEvent{}

	event, err := parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)
		reply.Error = err.Error()
		w.respond(msg, reply)

		return
	}

	reply.Header = event.Header

	audioKey, labelKey, err := w.processSynthesisJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to process synthesis job for workflow %s: %v", event.Header.WorkflowID, err)
		reply.Error = err.Error()
		w.respond(msg, reply)

		return
	}

	w.log.Info("Rendered workflow %s to %s", event.Header.WorkflowID, audioKey)

	reply.AudioKey = audioKey
	reply.LabelKey = labelKey
	w.respond(msg, reply)
}

// processSynthesisJob stages the inputs, runs one sequencer and uploads the artifacts.
func (w *NatsWorker) processSynthesisJob(
	ctx context.Context,
	event *core.SynthesisRequestedEvent,
) (string, string, error) {
	jobDir, err := os.MkdirTemp(w.settings.WorkDir, jobDirPattern)
	if err != nil {
		return "", "", fmt.Errorf("failed to create job directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(jobDir)
		if removeErr != nil {
			w.log.Warn("Failed to remove job directory %s: %v", jobDir, removeErr)
		}
	}()

	scorePath, err := w.stage(ctx, event.ScoreKey, filepath.Join(jobDir, "score"+filepath.Ext(event.ScoreKey)))
	if err != nil {
		return "", "", err
	}

	voicePath, err := w.stage(ctx, event.VoiceKey, filepath.Join(jobDir, voiceFileName))
	if err != nil {
		return "", "", err
	}

	outputPath := filepath.Join(jobDir, outputFileName)

	opts, err := options.ResolveWithDefaults(buildTokens(event.Args, voicePath, outputPath, scorePath), w.settings.Defaults)
	if err != nil {
		if errors.Is(err, options.ErrHelpRequested) {
			return "", "", ErrHelpNotSupported
		}

		return "", "", fmt.Errorf("invalid synthesis arguments: %w", err)
	}

	if opts.VoiceModel != voicePath || opts.OutputAudioPath != outputPath {
		return "", "", fmt.Errorf("invalid synthesis arguments: %w", ErrReservedOption)
	}

	var labels bytes.Buffer

	err = synth.New(w.newEngine(&labels), w.log).Run(ctx, opts)
	if err != nil {
		return "", "", err
	}

	audioData, err := os.ReadFile(outputPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read rendered audio: %w", err)
	}

	return w.uploadArtifacts(ctx, audioData, labels.Bytes())
}

// stage downloads key from the object store into path.
func (w *NatsWorker) stage(ctx context.Context, key, path string) (string, error) {
	data, err := w.store.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to download '%s': %w", key, err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to stage '%s': %w", key, err)
	}

	return path, nil
}

// uploadArtifacts stores the WAV and, when present, the label text under one job id.
// The WAV is removed again if the label upload fails.
func (w *NatsWorker) uploadArtifacts(ctx context.Context, audioData, labelData []byte) (string, string, error) {
	jobID := uuid.NewString()
	audioKey := jobID + audioKeySuffix

	err := w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	if len(labelData) == 0 {
		return audioKey, "", nil
	}

	labelKey := jobID + labelKeySuffix

	err = w.store.Upload(ctx, labelKey, labelData)
	if err != nil {
		deleteErr := w.store.Delete(ctx, audioKey)
		if deleteErr != nil {
			w.log.Warn("Failed to remove orphaned audio %s: %v", audioKey, deleteErr)
		}

		return "", "", fmt.Errorf("failed to upload label data for key '%s': %w", labelKey, err)
	}

	return audioKey, labelKey, nil
}

// respond marshals and responds with the SynthesisCompletedEvent.
func (w *NatsWorker) respond(msg *nats.Msg, reply *core.SynthesisCompletedEvent) {
	if msg.Reply == "" {
		return
	}

	replyData, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", reply.Header.WorkflowID, err)
	}
}

// buildTokens puts the staged voice, output and score paths ahead of the request's options.
// A value flag left dangling at the end of args then reports its own missing value.
func buildTokens(args []string, voicePath, outputPath, scorePath string) []string {
	return slices.Concat([]string{"-m", voicePath, "-o", outputPath, scorePath}, args)
}

func parseAndValidateEvent(msg *nats.Msg) (*core.SynthesisRequestedEvent, error) {
	var event core.SynthesisRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ScoreKey == "" {
		return nil, ErrScoreKeyEmpty
	}

	if event.VoiceKey == "" {
		return nil, ErrVoiceKeyEmpty
	}

	return &event, nil
}
