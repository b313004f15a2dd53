package jobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type memoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
}

// NewMemory creates a process-local store.
func NewMemory() Store {
	return &memoryStore{jobs: make(map[string]models.Job)}
}

func (m *memoryStore) Create(ctx context.Context, job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("%w: %s", models.ErrJobExists, job.ID)
	}
	m.jobs[job.ID] = job.Clone()
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return job.Clone(), nil
}

func (m *memoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return models.Job{}, err
	}
	m.jobs[id] = next.Clone()
	return next, nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(m.jobs, id)
	return nil
}

func (m *memoryStore) List(ctx context.Context) ([]models.Job, error) {
	m.mu.RLock()
	jobs := make([]models.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.Clone())
	}
	m.mu.RUnlock()

	sortJobs(jobs)
	return jobs, nil
}

func (m *memoryStore) Close() error {
	return nil
}
