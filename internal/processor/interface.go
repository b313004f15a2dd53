// Package processor owns the job lifecycle: it accepts submissions, runs the
// analysis pipeline in the background and serves the read side.
package processor

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Artifact is a rendered download of a completed job.
type Artifact struct {
	Data        []byte
	ContentType string
	FileName    string
}

type Processor interface {
	// Submit validates the source, records a queued job and starts it in the
	// background. It returns as soon as the job is stored.
	Submit(ctx context.Context, src models.Source) (string, error)
	Status(ctx context.Context, id string) (models.Job, error)
	// Result fails with models.ErrNotReady until the job completed.
	Result(ctx context.Context, id string) (models.JobResult, error)
	Render(ctx context.Context, id, format string) (Artifact, error)
	// TranslateSummary never reads or writes job records.
	TranslateSummary(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	// Evict deletes a finished job.
	Evict(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Job, error)

	// Start marks jobs left unfinished by a previous process as failed.
	Start(ctx context.Context) error
	// Stop rejects new submissions and waits for running jobs.
	Stop()
}
