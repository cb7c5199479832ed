// main package for the sinsy-service
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/config"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/objectstore"
	"github.com/book-expert/sinsy-service/internal/tts"
	"github.com/book-expert/sinsy-service/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"
)

const (
	serviceName          = "sinsy-service"
	bootstrapLogFileName = "sinsy-service-bootstrap.log"
	healthCheckTimeout   = 10 * time.Second
)

// Log messages.
const (
	logServiceReady   = "Sinsy-Service successfully initialized. Listening for jobs on subject: %s"
	logBucketReady    = "Artifacts are stored in bucket: %s"
	logServiceStopped = "Sinsy-Service stopped."
	msgEngineHealthy  = "synthesis engine (%s) is healthy\n"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

// loadServiceConfig loads the configuration through a bootstrap logger and returns it
// together with the final logger under the configured logs directory.
func loadServiceConfig() (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFileName)
	if err != nil {
		return nil, nil, err
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, cfg.ServiceLogFileName())
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return nil, nil, fmt.Errorf("failed to create final logger: %w", err)
	}

	return cfg, finalLog, nil
}

func closeLogger(log *logger.Logger) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := loadServiceConfig()
	if err != nil {
		return err
	}

	defer closeLogger(log)

	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	js, err := jetstream.New(natsConnection)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(ctx, js, cfg.NATS.ArtifactBucket)
	if err != nil {
		log.Error("Failed to open artifact bucket: %v", err)

		return err
	}

	log.Info(logBucketReady, store.Bucket())

	// Requests render to files; the service has no audio device.
	newEngine := func(labelOut io.Writer) core.Engine {
		return tts.NewEngine(cfg, nil, labelOut, log)
	}

	natsWorker, err := worker.NewNatsWorker(natsConnection, store, newEngine, worker.Settings{
		Subject:    cfg.NATS.SynthesisRequestedSubject,
		WorkDir:    cfg.Paths.WorkDir,
		Defaults:   cfg.OptionDefaults(),
		JobTimeout: cfg.JobTimeout(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System(logServiceReady, cfg.NATS.SynthesisRequestedSubject)

	err = natsWorker.Run(ctx)
	if err != nil {
		log.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker failed: %w", err)
	}

	log.System(logServiceStopped)

	return nil
}

// checkHealth verifies that the configured engine can be reached.
func checkHealth(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.Engine.Kind == config.EngineKindCommand {
		_, err := exec.LookPath(cfg.Engine.BinaryPath)
		if err != nil {
			return fmt.Errorf("renderer binary not found: %w", err)
		}
	} else {
		err := tts.NewHTTPClient(cfg.Engine.ServiceURL, healthCheckTimeout).HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("synthesis service is not healthy: %w", err)
		}
	}

	_, err := fmt.Fprintf(out, msgEngineHealthy, cfg.Engine.Kind)

	return err
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Singing voice synthesis worker",
		Long:          "Renders MusicXML scores with HTS voice models for synthesis requests received over NATS.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for synthesis requests until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the configured synthesis engine is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadServiceConfig()
			if err != nil {
				return err
			}

			defer closeLogger(log)

			return checkHealth(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(serveCmd, healthCmd)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
