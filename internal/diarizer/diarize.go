package diarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Argument placeholders. Without {audio} the audio path is appended.
const (
	audioPlaceholder = "{audio}"
	tokenPlaceholder = "{hf_token}"
)

func (d *implDiarizer) Diarize(ctx context.Context, audioPath string) ([]models.DiarizationTurn, error) {
	args := d.buildArgs(audioPath)

	d.logger.Info(ctx, "Running diarization: %s", d.cfg.Command)
	out, err := d.executor.Execute(ctx, d.cfg.Command, args...)
	if err != nil {
		return nil, models.NewStageError(models.StageDiarization, "diarization command failed", d.redact(err))
	}

	turns, err := ParseTurns(out)
	if err != nil {
		return nil, models.NewStageError(models.StageDiarization, fmt.Sprintf("parse turns: %v", err), err)
	}

	smoothed := Smooth(turns, d.cfg.MinSegmentDuration, d.cfg.MergeGap)
	d.logger.Info(ctx, "Diarization completed: %d turns (%d raw)", len(smoothed), len(turns))
	return smoothed, nil
}

func (d *implDiarizer) buildArgs(audioPath string) []string {
	args := make([]string, 0, len(d.cfg.Args)+1)
	hasAudio := false
	for _, a := range d.cfg.Args {
		if strings.Contains(a, audioPlaceholder) {
			hasAudio = true
			a = strings.ReplaceAll(a, audioPlaceholder, audioPath)
		}
		a = strings.ReplaceAll(a, tokenPlaceholder, d.cfg.HFToken)
		args = append(args, a)
	}
	if !hasAudio {
		args = append(args, audioPath)
	}
	return args
}

// redact keeps the access token out of error messages and job records.
func (d *implDiarizer) redact(err error) error {
	if d.cfg.HFToken == "" || !strings.Contains(err.Error(), d.cfg.HFToken) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), d.cfg.HFToken, "***"))
}
