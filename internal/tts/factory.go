package tts

import (
	"io"

	"github.com/book-expert/logger"
	"github.com/book-expert/sinsy-service/internal/audio"
	"github.com/book-expert/sinsy-service/internal/config"
	"github.com/book-expert/sinsy-service/internal/core"
)

// NewEngine builds the engine adapter selected by cfg.Engine.Kind. player may be nil
// when only file output is needed.
func NewEngine(cfg *config.Config, player audio.Player, labelOut io.Writer, log *logger.Logger) core.Engine {
	if cfg.Engine.Kind == config.EngineKindCommand {
		return NewCommandEngine(cfg.Engine.BinaryPath, labelOut, log)
	}

	client := NewHTTPClient(cfg.Engine.ServiceURL, cfg.EngineTimeout())

	return NewHTTPEngine(client, player, labelOut, log)
}
