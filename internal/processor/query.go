package processor

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/insight-flow/internal/export"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func (p *implProcessor) Status(ctx context.Context, id string) (models.Job, error) {
	return p.deps.Store.Get(ctx, id)
}

func (p *implProcessor) Result(ctx context.Context, id string) (models.JobResult, error) {
	job, err := p.deps.Store.Get(ctx, id)
	if err != nil {
		return models.JobResult{}, err
	}
	return completedResult(job)
}

func (p *implProcessor) Render(ctx context.Context, id, format string) (Artifact, error) {
	job, err := p.deps.Store.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	if !export.Supported(format) {
		return Artifact{}, models.Validationf("unsupported format %q", format)
	}
	res, err := completedResult(job)
	if err != nil {
		return Artifact{}, err
	}

	data, contentType, err := export.Render(format, res)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Data:        data,
		ContentType: contentType,
		FileName:    export.FileName(res.Title, format),
	}, nil
}

func (p *implProcessor) TranslateSummary(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return p.deps.Translator.Translate(ctx, text, sourceLang, targetLang)
}

func (p *implProcessor) Evict(ctx context.Context, id string) error {
	job, err := p.deps.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsDone() {
		return fmt.Errorf("%w: job %s is %s", models.ErrNotReady, id, job.Status)
	}
	return p.deps.Store.Delete(ctx, id)
}

func (p *implProcessor) List(ctx context.Context) ([]models.Job, error) {
	return p.deps.Store.List(ctx)
}

func completedResult(job models.Job) (models.JobResult, error) {
	if job.Status != models.JobStatusCompleted || job.Result == nil {
		return models.JobResult{}, fmt.Errorf("%w: job %s is %s", models.ErrNotReady, job.ID, job.Status)
	}
	return *job.Result, nil
}
