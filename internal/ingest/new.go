package ingest

import (
	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/pkg/executor"
)

type implIngestor struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a new Ingestor instance
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Ingestor {
	return &implIngestor{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
