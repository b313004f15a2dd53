package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func (p *implProcessor) Submit(ctx context.Context, src models.Source) (string, error) {
	if err := ingest.ValidateSource(src); err != nil {
		return "", err
	}
	if !src.IsURL() {
		if info, err := os.Stat(src.FilePath); err != nil || info.IsDir() {
			return "", models.Validationf("file %q is not available", src.FileName)
		}
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return "", ErrStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()

	id := uuid.NewString()
	if err := p.deps.Store.Create(ctx, models.NewJob(id, src, p.now())); err != nil {
		p.wg.Done()
		return "", fmt.Errorf("create job: %w", err)
	}

	// the run outlives the submitting request
	runCtx := logger.WithJobID(context.WithoutCancel(ctx), id)
	go p.run(runCtx, id, src)

	p.logger.Info(runCtx, "Job queued")
	return id, nil
}

func (p *implProcessor) Start(ctx context.Context) error {
	jobs, err := p.deps.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	for _, job := range jobs {
		if job.IsDone() {
			continue
		}
		jobCtx := logger.WithJobID(ctx, job.ID)
		_, err := p.deps.Store.Update(ctx, job.ID, func(j *models.Job) error {
			if j.IsDone() {
				return nil
			}
			return j.Fail(models.ErrorInfo{Stage: stageOf(j), Message: "interrupted by service restart"}, p.now())
		})
		if err != nil {
			p.logger.Warn(jobCtx, "Failed to close interrupted job: %v", err)
			continue
		}
		p.logger.Warn(jobCtx, "Marked interrupted job as failed")
	}
	return nil
}

func (p *implProcessor) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}
