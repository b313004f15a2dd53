package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/alignment"
	"github.com/nguyentantai21042004/insight-flow/internal/ingest"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Progress checkpoints. Each is reached before its stage starts.
const (
	progressIngest     = 10
	progressTranscribe = 30
	progressDiarize    = 55
	progressAlign      = 65
	progressSummary    = 80
	progressSentiment  = 88
	progressChapters   = 95
)

var stageMessages = map[string]models.Stage{
	"downloading media":   models.StageIngestion,
	"preparing media":     models.StageIngestion,
	"transcribing":        models.StageTranscription,
	"diarizing":           models.StageDiarization,
	"aligning speakers":   models.StageAlignment,
	"summarizing":         models.StageSummarization,
	"analyzing sentiment": models.StageSentiment,
	"building chapters":   models.StageChapterization,
}

// run drives one job to a terminal state.
func (p *implProcessor) run(ctx context.Context, id string, src models.Source) {
	defer p.wg.Done()

	if err := p.slots.Acquire(ctx); err != nil {
		p.fail(ctx, id, models.NewStageError(models.StageIngestion, "could not start", err))
		return
	}
	defer p.slots.Release()

	startTime := time.Now()
	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting job: %s", describe(src))
	p.logger.Info(ctx, "========================================")

	result, err := p.process(ctx, id, src)
	if !src.IsURL() {
		p.archive(ctx, src.FilePath)
	}
	if err != nil {
		p.fail(ctx, id, err)
		return
	}

	if err := p.complete(ctx, id, result); err != nil {
		p.fail(ctx, id, models.NewStageError(models.StageStorage, "could not store result", err))
		return
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Job completed: %d transcript items, %d chapters", len(result.Transcript), len(result.Chapters))
	p.logger.Info(ctx, "Processing time: %s", time.Since(startTime).Round(time.Millisecond))
	p.logger.Info(ctx, "========================================")
}

// process runs the stages in order. Only a complete result is returned.
func (p *implProcessor) process(ctx context.Context, id string, src models.Source) (models.JobResult, error) {
	// Step 1: Fetch and convert media
	msg := "preparing media"
	if src.IsURL() {
		msg = "downloading media"
	}
	p.advance(ctx, id, progressIngest, msg)

	media, err := withTimeout(ctx, models.StageIngestion, p.cfg.Timeouts.Ingestion, func(ctx context.Context) (ingest.Media, error) {
		return p.deps.Ingestor.Fetch(ctx, src)
	})
	if err != nil {
		return models.JobResult{}, err
	}
	defer p.deps.Ingestor.Cleanup(ctx, media)

	// Step 2: Transcribe
	p.advance(ctx, id, progressTranscribe, "transcribing")
	segments, err := withTimeout(ctx, models.StageTranscription, p.cfg.Timeouts.Transcription, func(ctx context.Context) ([]models.TranscriptSegment, error) {
		return p.deps.Transcriber.Transcribe(ctx, media.AudioPath)
	})
	if err != nil {
		return models.JobResult{}, err
	}

	// Step 3: Diarize
	p.advance(ctx, id, progressDiarize, "diarizing")
	turns, err := withTimeout(ctx, models.StageDiarization, p.cfg.Timeouts.Diarization, func(ctx context.Context) ([]models.DiarizationTurn, error) {
		return p.deps.Diarizer.Diarize(ctx, media.AudioPath)
	})
	if err != nil {
		return models.JobResult{}, err
	}

	// Step 4: Align speakers
	p.advance(ctx, id, progressAlign, "aligning speakers")
	items := alignment.Align(segments, turns)
	text := alignment.Flatten(items)
	plain := alignment.PlainText(items)

	// Step 5: Summary is fatal, sentiment and chapters degrade
	p.advance(ctx, id, progressSummary, "summarizing")
	summary, err := p.deps.Summarizer.Summary(ctx, text)
	if err != nil {
		return models.JobResult{}, stageError(models.StageSummarization, err)
	}

	p.advance(ctx, id, progressSentiment, "analyzing sentiment")
	sentiment, err := p.deps.Summarizer.Sentiment(ctx, plain)
	if err != nil {
		p.logger.Warn(ctx, "Sentiment unavailable, using neutral: %v", err)
		sentiment = models.NeutralSentiment()
	}

	p.advance(ctx, id, progressChapters, "building chapters")
	chapters, err := p.deps.Chapterizer.Chapterize(ctx, items)
	if err != nil {
		p.logger.Warn(ctx, "Chapters unavailable: %v", err)
		chapters = []models.ChapterSpan{}
	}

	return models.JobResult{
		Title:      media.Title,
		Summary:    summary,
		Sentiment:  sentiment,
		Transcript: items,
		Chapters:   chapters,
	}, nil
}

// complete stores the result. Store failures other than a rejected
// transition are retried.
func (p *implProcessor) complete(ctx context.Context, id string, result models.JobResult) error {
	var err error
	for attempt := 1; attempt <= completeAttempts; attempt++ {
		_, err = p.deps.Store.Update(ctx, id, func(j *models.Job) error {
			return j.Complete(result, p.now())
		})
		if err == nil || errors.Is(err, models.ErrInvalidTransition) || errors.Is(err, models.ErrNotFound) {
			return err
		}
		p.logger.Warn(ctx, "Storing result failed (attempt %d/%d): %v", attempt, completeAttempts, err)
		if attempt < completeAttempts {
			time.Sleep(p.retryWait)
		}
	}
	return err
}

func (p *implProcessor) advance(ctx context.Context, id string, progress int, message string) {
	p.logger.Info(ctx, "[%d%%] %s", progress, message)
	_, err := p.deps.Store.Update(ctx, id, func(j *models.Job) error {
		return j.Advance(progress, message, p.now())
	})
	if err != nil {
		p.logger.Warn(ctx, "Failed to record progress: %v", err)
	}
}

func (p *implProcessor) fail(ctx context.Context, id string, err error) {
	var se *models.StageError
	if !errors.As(err, &se) {
		se = models.NewStageError(models.StageIngestion, "", err)
	}
	p.logger.Error(ctx, "Job failed: %v", err)

	_, uerr := p.deps.Store.Update(ctx, id, func(j *models.Job) error {
		return j.Fail(se.Info(), p.now())
	})
	if uerr != nil {
		p.logger.Error(ctx, "Failed to record failure: %v", uerr)
	}
}

// withTimeout runs a blocking stage under its own deadline.
func withTimeout[T any](ctx context.Context, stage models.Stage, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := call(ctx)
	if err == nil {
		return out, nil
	}
	var zero T
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return zero, models.NewStageError(stage, fmt.Sprintf("timed out after %s", timeout), err)
	}
	return zero, stageError(stage, err)
}

// stageError keeps an existing stage attribution.
func stageError(stage models.Stage, err error) error {
	var se *models.StageError
	if errors.As(err, &se) {
		return se
	}
	return models.NewStageError(stage, "", err)
}

// stageOf maps the job's current message to the stage it was in.
func stageOf(j *models.Job) models.Stage {
	if stage, ok := stageMessages[j.Message]; ok {
		return stage
	}
	return models.StageIngestion
}

func describe(src models.Source) string {
	if src.IsURL() {
		return src.URL
	}
	return src.FileName
}
