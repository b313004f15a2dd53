// Package jobstore persists job records. Every update is applied atomically
// per job id so pollers never observe a half-written record.
package jobstore

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// UpdateFunc mutates a copy of the stored job. Returning an error aborts the
// update without writing anything.
type UpdateFunc func(job *models.Job) error

// Store is the only shared mutable state of the service.
type Store interface {
	// Create stores a new job, failing with models.ErrJobExists if the id is taken.
	Create(ctx context.Context, job models.Job) error
	// Get returns a copy of the job or models.ErrNotFound.
	Get(ctx context.Context, id string) (models.Job, error)
	// Update applies fn to the current record and commits the result.
	Update(ctx context.Context, id string, fn UpdateFunc) (models.Job, error)
	Delete(ctx context.Context, id string) error
	// List returns all jobs, oldest first.
	List(ctx context.Context) ([]models.Job, error)
	Close() error
}
