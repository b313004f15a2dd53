package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// SaveUpload writes r to the uploads folder under a unique name. The
// extension must be allowed.
func (i *implIngestor) SaveUpload(ctx context.Context, name string, r io.Reader) (string, error) {
	if !AllowedExtension(name) {
		return "", models.Validationf("unsupported file type %q, allowed: %s", filepath.Ext(name), strings.Join(Extensions(), ", "))
	}

	if err := os.MkdirAll(i.cfg.Paths.Uploads, 0755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	// a short prefix keeps two uploads of the same name apart
	destPath := filepath.Join(i.cfg.Paths.Uploads, uuid.NewString()[:8]+"_"+SafeName(name))

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n == 0 {
		os.Remove(destPath)
		return "", models.Validationf("uploaded file is empty")
	}

	i.logger.Info(ctx, "Saved upload %s (%d bytes): %s", name, n, destPath)
	return destPath, nil
}
