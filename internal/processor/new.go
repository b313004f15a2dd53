package processor

import (
	"errors"
	"sync"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/chapterizer"
	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/diarizer"
	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/jobstore"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/summarizer"
	"github.com/nguyentantai21042004/insight-flow/internal/transcriber"
	"github.com/nguyentantai21042004/insight-flow/internal/translator"
	"github.com/nguyentantai21042004/insight-flow/pkg/semaphore"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("processor is shutting down")

// completeAttempts bounds writes of the final result.
const completeAttempts = 3

// Dependencies are the pipeline collaborators.
type Dependencies struct {
	Store       jobstore.Store
	Ingestor    ingest.Ingestor
	Transcriber transcriber.Transcriber
	Diarizer    diarizer.Diarizer
	Summarizer  summarizer.Coordinator
	Chapterizer chapterizer.Chapterizer
	Translator  translator.Translator
}

type implProcessor struct {
	cfg    *config.Config
	deps   Dependencies
	logger logger.Logger
	slots  *semaphore.Semaphore
	now    func() time.Time
	// retryWait separates attempts to store the final result
	retryWait time.Duration

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Dependencies, log logger.Logger) Processor {
	return &implProcessor{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		slots:  semaphore.New(cfg.Performance.MaxConcurrent),
		now:    time.Now,

		retryWait: 250 * time.Millisecond,
	}
}
