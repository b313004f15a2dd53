// Package summarizer produces a summary and a sentiment distribution for a
// transcript by trying an ordered list of providers.
package summarizer

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Provider is one summarization backend.
type Provider interface {
	Name() string
	GenerateSummary(ctx context.Context, text string) (string, error)
	GenerateSentiment(ctx context.Context, text string) (models.Sentiment, error)
}

// Coordinator runs summary and sentiment as independent try units over the
// configured providers.
type Coordinator interface {
	Summary(ctx context.Context, text string) (string, error)
	Sentiment(ctx context.Context, text string) (models.Sentiment, error)
	Summarize(ctx context.Context, text string) (string, models.Sentiment, error)
}
