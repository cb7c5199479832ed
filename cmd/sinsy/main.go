// main package for the sinsy command-line synthesizer
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/audio"
	"github.com/book-expert/sinsy-service/internal/config"
	"github.com/book-expert/sinsy-service/internal/core"
	"github.com/book-expert/sinsy-service/internal/options"
	"github.com/book-expert/sinsy-service/internal/synth"
	"github.com/book-expert/sinsy-service/internal/tts"
)

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = -1
)

// Messages.
const (
	errPrefix       = "[ERROR] "
	logInvocation   = "Invoked with %d tokens"
	logRunFailed    = "Run failed at stage %s: %v"
	logRunSucceeded = "Synthesis finished"
)

// engineFactory builds the engine for one run. Label text must be written to labelOut.
type engineFactory func(cfg *config.Config, labelOut io.Writer, log *logger.Logger) core.Engine

// dependencies are the collaborators run needs from the outside world.
type dependencies struct {
	loadConfig func() (*config.Config, error)
	newEngine  engineFactory
}

func newEngine(cfg *config.Config, labelOut io.Writer, log *logger.Logger) core.Engine {
	return tts.NewEngine(cfg, audio.NewPortAudioPlayer(), labelOut, log)
}

func printError(stdout io.Writer, err error) {
	_, _ = fmt.Fprintln(stdout, errPrefix+err.Error())
}

// run resolves args, drives one synthesis and returns the process exit code.
// Every diagnostic goes to stdout followed by the usage text. A configuration error only
// fails invocations that would reach the engine; help and usage errors are reported
// against the built-in defaults.
func run(args []string, stdout io.Writer, deps dependencies) int {
	defaults := options.DefaultSettings()

	cfg, cfgErr := deps.loadConfig()
	if cfgErr == nil {
		defaults = cfg.OptionDefaults()
	}

	opts, err := options.ResolveWithDefaults(args, defaults)
	if err != nil {
		if errors.Is(err, options.ErrHelpRequested) {
			options.UsageWithDefaults(stdout, defaults)

			return exitSuccess
		}

		printError(stdout, err)
		options.UsageWithDefaults(stdout, defaults)

		return exitFailure
	}

	if cfgErr != nil {
		printError(stdout, cfgErr)
		options.UsageWithDefaults(stdout, defaults)

		return exitFailure
	}

	// The file log is best effort; stdout carries only user-facing output.
	log, err := logger.New(cfg.Paths.BaseLogsDir, cfg.CLILogFileName())
	if err != nil {
		log = nil
	} else {
		defer func() { _ = log.Close() }()
		log.Info(logInvocation, len(args))
	}

	sequencer := synth.New(deps.newEngine(cfg, stdout, log), log)

	err = sequencer.Run(context.Background(), opts)
	if err != nil {
		if log != nil {
			log.Error(logRunFailed, synth.StageOf(err), err)
		}

		printError(stdout, err)
		options.UsageWithDefaults(stdout, defaults)

		return exitFailure
	}

	if log != nil {
		log.Info(logRunSucceeded)
	}

	return exitSuccess
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, dependencies{
		loadConfig: config.LoadCLI,
		newEngine:  newEngine,
	}))
}
