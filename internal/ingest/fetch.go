package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func (i *implIngestor) Fetch(ctx context.Context, src models.Source) (Media, error) {
	if err := os.MkdirAll(i.cfg.Paths.Temp, 0755); err != nil {
		return Media{}, ingestionError("prepare temp dir", err)
	}
	workDir, err := os.MkdirTemp(i.cfg.Paths.Temp, "job-*")
	if err != nil {
		return Media{}, ingestionError("prepare temp dir", err)
	}
	media := Media{WorkDir: workDir}

	if src.IsURL() {
		path, title, err := i.download(ctx, src.URL, workDir)
		if err != nil {
			i.Cleanup(ctx, media)
			return Media{}, ingestionError("download failed", err)
		}
		media.SourcePath = path
		media.Title = title
	} else {
		if _, err := os.Stat(src.FilePath); err != nil {
			i.Cleanup(ctx, media)
			return Media{}, ingestionError("source file unavailable", err)
		}
		media.SourcePath = src.FilePath
		name := src.FileName
		if name == "" {
			name = filepath.Base(src.FilePath)
		}
		media.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	audioPath, err := i.extractAudio(ctx, media.SourcePath, workDir)
	if err != nil {
		i.Cleanup(ctx, media)
		return Media{}, ingestionError("audio extraction failed", err)
	}
	media.AudioPath = audioPath
	return media, nil
}

// download fetches the best audio stream as mp3 with yt-dlp. It returns the
// file path and the media title.
func (i *implIngestor) download(ctx context.Context, rawURL, dir string) (string, string, error) {
	i.logger.Info(ctx, "Downloading media: %s", rawURL)

	// -f bestaudio/best: audio only when available
	// -x --audio-format mp3: let yt-dlp run ffmpeg to mp3
	// --print after_move:...: emit title and final path once the file is in place
	args := []string{
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--print", "after_move:title",
		"--print", "after_move:filepath",
	}
	if cookies := i.cfg.Ingest.CookiesFile; cookies != "" {
		if _, err := os.Stat(cookies); err == nil {
			i.logger.Debug(ctx, "Using cookies from: %s", cookies)
			args = append(args, "--cookies", cookies)
		}
	}
	args = append(args, rawURL)

	out, err := i.executor.Execute(ctx, i.cfg.Ingest.YtDlpPath, args...)
	if err != nil {
		return "", "", fmt.Errorf("yt-dlp: %w", err)
	}

	title, path := parseDownloadOutput(out)
	if path == "" {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.mp3"))
		if len(matches) == 0 {
			return "", "", fmt.Errorf("yt-dlp produced no mp3 in %s", dir)
		}
		path = matches[0]
	}
	if _, err := os.Stat(path); err != nil {
		return "", "", fmt.Errorf("expected output file not found: %w", err)
	}
	if title == "" {
		title = "Unknown Title"
	}

	i.logger.Info(ctx, "Downloaded %q to %s", title, path)
	return path, title, nil
}

// parseDownloadOutput reads the title and path printed by yt-dlp. The path
// is the last non-empty line, the title the one before it.
func parseDownloadOutput(out string) (title, path string) {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	path = lines[len(lines)-1]
	if len(lines) > 1 {
		title = lines[len(lines)-2]
	}
	return title, path
}

// extractAudio converts the source to 16kHz mono WAV, the format whisper.cpp
// reads.
func (i *implIngestor) extractAudio(ctx context.Context, sourcePath, dir string) (string, error) {
	audioPath := filepath.Join(dir, "audio.wav")

	i.logger.Info(ctx, "Extracting audio: %s", sourcePath)

	// -vn: drop video
	// -ar 16000 -ac 1: 16kHz mono
	// -c:a pcm_s16le: 16-bit PCM
	args := []string{
		"-i", sourcePath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		audioPath,
	}

	if _, err := i.executor.Execute(ctx, i.cfg.Ingest.FFmpegPath, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	i.logger.Debug(ctx, "Audio extracted: %s", audioPath)
	return audioPath, nil
}

// Cleanup removes the run's temp dir, logging a warning if that fails.
func (i *implIngestor) Cleanup(ctx context.Context, m Media) {
	if m.WorkDir == "" {
		return
	}
	if err := os.RemoveAll(m.WorkDir); err != nil {
		i.logger.Warn(ctx, "Failed to cleanup temp dir %s: %v", m.WorkDir, err)
	} else {
		i.logger.Debug(ctx, "Cleaned up temp dir: %s", m.WorkDir)
	}
}

func ingestionError(msg string, err error) error {
	return models.NewStageError(models.StageIngestion, fmt.Sprintf("%s: %v", msg, err), err)
}
