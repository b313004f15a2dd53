package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type implWatcher struct {
	inputDir string
	handler  EventHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	settle   time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
	wg   sync.WaitGroup
}

// Start begins monitoring the input directory for new media files
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.inputDir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(ingest.Extensions(), ", "))

	w.scanExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for pending files...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// mv into the folder also arrives as Create
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !ingest.AllowedExtension(event.Name) {
				w.logger.Debug(ctx, "Ignoring unsupported file: %s", event.Name)
				continue
			}
			w.logger.Info(ctx, "New file detected: %s", event.Name)
			w.dispatch(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// scanExisting picks up files dropped while the service was down.
func (w *implWatcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		w.logger.Warn(ctx, "Failed to scan %s: %v", w.inputDir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !ingest.AllowedExtension(e.Name()) {
			continue
		}
		path := filepath.Join(w.inputDir, e.Name())
		w.logger.Info(ctx, "Found pending file: %s", path)
		w.dispatch(ctx, path)
	}
}

func (w *implWatcher) dispatch(ctx context.Context, path string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		modTime, err := w.waitStable(ctx, path)
		if err != nil {
			w.logger.Warn(ctx, "Skipping %s: %v", path, err)
			return
		}
		if !w.markSeen(path, modTime) {
			return
		}
		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to submit %s: %v", path, err)
			w.forget(path)
		}
	}()
}

// waitStable polls until the file size stops changing, so a copy still in
// progress is not submitted.
func (w *implWatcher) waitStable(ctx context.Context, path string) (time.Time, error) {
	lastSize := int64(-1)
	for i := 0; i < maxSettleChecks; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, err
		}
		if info.Size() > 0 && info.Size() == lastSize {
			return info.ModTime(), nil
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-time.After(w.settle):
		}
	}
	return time.Time{}, fmt.Errorf("file still growing after %d checks", maxSettleChecks)
}

// markSeen reports whether this version of path is new. The startup scan and
// a create event can both report the same file.
func (w *implWatcher) markSeen(path string, modTime time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.seen[path]; ok && prev.Equal(modTime) {
		return false
	}
	w.seen[path] = modTime
	return true
}

func (w *implWatcher) forget(path string) {
	w.mu.Lock()
	delete(w.seen, path)
	w.mu.Unlock()
}

// SubmitHandler turns a dropped file into a job.
func SubmitHandler(s Submitter, log logger.Logger) EventHandler {
	return func(ctx context.Context, path string) error {
		id, err := s.Submit(ctx, models.Source{FilePath: path, FileName: filepath.Base(path)})
		if err != nil {
			return err
		}
		log.Info(logger.WithJobID(ctx, id), "Submitted dropped file: %s", path)
		return nil
	}
}
