// Package diarizer produces speaker turns for an audio file.
package diarizer

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]models.DiarizationTurn, error)
}
