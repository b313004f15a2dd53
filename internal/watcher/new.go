package watcher

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
)

const (
	defaultSettle   = 500 * time.Millisecond
	maxSettleChecks = 120
)

// New watches inputDir, creating it if needed.
func New(inputDir string, handler EventHandler, log logger.Logger) (Watcher, error) {
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		inputDir: inputDir,
		handler:  handler,
		logger:   log,
		watcher:  watcher,
		settle:   defaultSettle,
		seen:     make(map[string]time.Time),
	}, nil
}
