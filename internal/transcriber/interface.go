// Package transcriber runs whisper.cpp and turns its SRT output into
// transcript segments.
package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}
