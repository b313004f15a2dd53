package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// archive moves a local source out of the uploads or watch folder once its
// job finished, keeping the original for later reference.
func (p *implProcessor) archive(ctx context.Context, sourcePath string) {
	if sourcePath == "" {
		return
	}
	dest, err := p.moveToArchived(ctx, sourcePath)
	if err != nil {
		p.logger.Warn(ctx, "Failed to move original to archived folder: %v", err)
		return
	}
	p.logger.Debug(ctx, "Archived source: %s", dest)
}

// moveToArchived renames the file into the archive folder, adding a numeric
// suffix when the name is taken.
func (p *implProcessor) moveToArchived(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(p.cfg.Paths.Archived, 0755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	dest := filepath.Join(p.cfg.Paths.Archived, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(p.cfg.Paths.Archived, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	p.logger.Info(ctx, "Moving to archived folder: %s -> %s", path, dest)
	if err := os.Rename(path, dest); err != nil {
		// cross-device rename
		if cerr := copyFile(path, dest); cerr != nil {
			return "", fmt.Errorf("move to archived: %w", errors.Join(err, cerr))
		}
		if rerr := os.Remove(path); rerr != nil {
			p.logger.Warn(ctx, "Failed to remove archived source %s: %v", path, rerr)
		}
	}
	return dest, nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}
