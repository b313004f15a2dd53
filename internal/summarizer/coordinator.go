package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// TooShortSummary is returned for transcripts below minSummaryChars.
const TooShortSummary = "Text too short to summarize."

const minSummaryChars = 50

func (c *implCoordinator) Summary(ctx context.Context, text string) (string, error) {
	if len(strings.TrimSpace(text)) < minSummaryChars {
		return TooShortSummary, nil
	}

	var errs []error
	for _, p := range c.providers {
		summary, err := try(ctx, c, p, "summary", func(ctx context.Context) (string, error) {
			out, err := p.GenerateSummary(ctx, text)
			if err == nil && strings.TrimSpace(out) == "" {
				err = llm.NewError(p.Name(), llm.Transient, errors.New("empty summary"))
			}
			return strings.TrimSpace(out), err
		})
		if err == nil {
			return summary, nil
		}
		if ctx.Err() != nil {
			return "", models.NewStageError(models.StageSummarization, "summary aborted", ctx.Err())
		}
		errs = append(errs, err)
	}
	return "", models.NewStageError(models.StageSummarization, "all summary providers failed", errors.Join(errs...))
}

func (c *implCoordinator) Sentiment(ctx context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return models.NeutralSentiment(), nil
	}

	var errs []error
	for _, p := range c.providers {
		s, err := try(ctx, c, p, "sentiment", func(ctx context.Context) (models.Sentiment, error) {
			return p.GenerateSentiment(ctx, text)
		})
		if err == nil {
			return s.Normalize(), nil
		}
		if ctx.Err() != nil {
			return models.Sentiment{}, models.NewStageError(models.StageSentiment, "sentiment aborted", ctx.Err())
		}
		errs = append(errs, err)
	}
	return models.Sentiment{}, models.NewStageError(models.StageSentiment, "all sentiment providers failed", errors.Join(errs...))
}

// Summarize runs both units. A sentiment failure degrades to neutral; the
// returned error is the summary's.
func (c *implCoordinator) Summarize(ctx context.Context, text string) (string, models.Sentiment, error) {
	sentiment, err := c.Sentiment(ctx, text)
	if err != nil {
		c.logger.Warn(ctx, "Sentiment unavailable, using neutral: %v", err)
		sentiment = models.NeutralSentiment()
	}

	summary, err := c.Summary(ctx, text)
	if err != nil {
		return "", sentiment, err
	}
	return summary, sentiment, nil
}

// try calls one provider up to MaxAttempts times. Only transient failures
// are retried; the wait doubles from Backoff up to MaxBackoff.
func try[T any](ctx context.Context, c *implCoordinator, p Provider, unit string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	wait := c.opts.Backoff

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := callOnce(ctx, c.opts.CallTimeout, call)
		if err == nil {
			if attempt > 1 {
				c.logger.Info(ctx, "%s %s succeeded on attempt %d", p.Name(), unit, attempt)
			}
			return out, nil
		}
		lastErr = fmt.Errorf("%s %s attempt %d: %w", p.Name(), unit, attempt, err)

		if !llm.IsTransient(err) {
			c.logger.Warn(ctx, "%s %s failed permanently: %v", p.Name(), unit, err)
			return zero, lastErr
		}
		if attempt == c.opts.MaxAttempts {
			break
		}

		c.logger.Warn(ctx, "%s %s attempt %d failed, retrying in %s: %v", p.Name(), unit, attempt, wait, err)
		if err := c.sleep(ctx, wait); err != nil {
			return zero, err
		}
		wait *= 2
		if c.opts.MaxBackoff > 0 && wait > c.opts.MaxBackoff {
			wait = c.opts.MaxBackoff
		}
	}

	c.logger.Warn(ctx, "%s %s exhausted %d attempts", p.Name(), unit, c.opts.MaxAttempts)
	return zero, lastErr
}

// callOnce bounds a single attempt by CallTimeout.
func callOnce[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(ctx)
}
