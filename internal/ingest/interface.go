// Package ingest stages uploads, downloads remote media and converts either
// into the wav the transcriber expects.
package ingest

import (
	"context"
	"io"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Media is the prepared input of one run.
type Media struct {
	Title      string
	SourcePath string
	AudioPath  string
	// WorkDir holds every temp file of the run and is removed by Cleanup.
	WorkDir string
}

type Ingestor interface {
	// SaveUpload stores an uploaded file under the uploads folder and
	// returns its path.
	SaveUpload(ctx context.Context, name string, r io.Reader) (string, error)
	// Fetch downloads (for URLs) and converts the source to 16 kHz mono wav.
	Fetch(ctx context.Context, src models.Source) (Media, error)
	// Cleanup removes the temp files of a run.
	Cleanup(ctx context.Context, m Media)
}
