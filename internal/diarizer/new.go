package diarizer

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/pkg/executor"
)

type implDiarizer struct {
	cfg      config.DiarizationConfig
	executor executor.Executor
	logger   logger.Logger
}

// New returns a command-backed Diarizer, or Noop when no command is configured.
func New(cfg config.DiarizationConfig, exec executor.Executor, log logger.Logger) Diarizer {
	if cfg.Command == "" {
		return Noop{}
	}
	return &implDiarizer{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

// Noop reports no turns, so every transcript item gets the sentinel speaker.
type Noop struct{}

func (Noop) Diarize(ctx context.Context, audioPath string) ([]models.DiarizationTurn, error) {
	return nil, nil
}
