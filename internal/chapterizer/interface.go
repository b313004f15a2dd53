// Package chapterizer splits a labeled transcript into titled chapters.
package chapterizer

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Chapterizer turns a labeled transcript into ordered, non-overlapping
// chapters covering [0, last item end].
type Chapterizer interface {
	Chapterize(ctx context.Context, items []models.LabeledTranscriptItem) ([]models.ChapterSpan, error)
}
