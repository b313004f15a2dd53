// Package watcher submits media files dropped into a folder as new jobs.
package watcher

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Watcher defines the interface for file system monitoring
type Watcher interface {
	// Start blocks until ctx is done, handling files already present and
	// every new one.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// Submitter is the part of the processor the watcher needs.
type Submitter interface {
	Submit(ctx context.Context, src models.Source) (string, error)
}
