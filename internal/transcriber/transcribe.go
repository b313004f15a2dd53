package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Transcribe runs whisper.cpp on a 16kHz mono wav and parses the SRT it
// writes next to the audio.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	// whisper appends .srt to the prefix
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	t.logger.Info(ctx, "Starting transcription with %d threads: %s", t.cfg.Threads, audioPath)

	// -osrt: write SRT
	// -l: force language ("auto" detects)
	// -ml 0 / -mc 0: no segment length or context limit
	// -bo 5: best of 5
	args := []string{
		"-m", t.cfg.ModelPath,
		"-f", audioPath,
		"-osrt",
		"-l", t.cfg.Language,
		"-t", strconv.Itoa(t.cfg.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if t.cfg.Prompt != "" {
		args = append(args, "--prompt", t.cfg.Prompt)
	}

	if _, err := t.executor.Execute(ctx, t.cfg.BinaryPath, args...); err != nil {
		return nil, models.NewStageError(models.StageTranscription, fmt.Sprintf("whisper failed: %v", err), err)
	}

	srtPath := outputPrefix + ".srt"
	data, err := os.ReadFile(srtPath)
	if err != nil {
		return nil, models.NewStageError(models.StageTranscription, "whisper wrote no subtitles", err)
	}

	segments, err := ParseSRT(string(data))
	if err != nil {
		return nil, models.NewStageError(models.StageTranscription, fmt.Sprintf("parse subtitles: %v", err), err)
	}

	before := len(segments)
	segments = RemoveRepeats(segments)
	if removed := before - len(segments); removed > 0 {
		t.logger.Debug(ctx, "Removed %d repeated/similar segments", removed)
	}
	if len(segments) == 0 {
		return nil, models.NewStageError(models.StageTranscription, "no speech detected", errors.New("empty transcript"))
	}

	t.logger.Info(ctx, "Transcription completed: %d segments", len(segments))
	return segments, nil
}
