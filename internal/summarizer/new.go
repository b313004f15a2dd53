package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
)

// Options bound the retry behaviour of a Coordinator.
type Options struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	CallTimeout time.Duration
}

type implCoordinator struct {
	providers []Provider
	opts      Options
	logger    logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a Coordinator that tries providers in order.
func New(providers []Provider, opts Options, log logger.Logger) Coordinator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &implCoordinator{
		providers: providers,
		opts:      opts,
		logger:    log,
		sleep:     sleepCtx,
	}
}

// FromConfig builds providers in the order of summarizer.providers. clients
// must hold every llm provider named there.
func FromConfig(cfg *config.Config, clients map[string]llm.Client, log logger.Logger) (Coordinator, error) {
	var providers []Provider
	for _, name := range cfg.Summarizer.Providers {
		if name == "lexicon" {
			providers = append(providers, NewLexicon())
			continue
		}
		c, ok := clients[name]
		if !ok {
			return nil, fmt.Errorf("summarizer: no client for provider %q", name)
		}
		providers = append(providers, NewLLMProvider(c))
	}

	return New(providers, Options{
		MaxAttempts: cfg.Summarizer.MaxAttempts,
		Backoff:     cfg.Summarizer.Backoff,
		MaxBackoff:  cfg.Summarizer.MaxBackoff,
		CallTimeout: cfg.Timeouts.ProviderCall,
	}, log), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
