package chapterizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// OverviewTitle names the single chapter of a transcript too short to split.
const OverviewTitle = "Overview"

const chapterPrompt = `Split the transcript below into about %d chapters, one per topic.
Each line starts with its offset as [mm:ss].
Reply with a JSON array only, in exactly this shape:
[{"start": 0, "title": "Short chapter title"}]
"start" is the chapter's first second, taken from the offsets. Titles are 3-6 words without quotes.

Transcript:
%s`

// minLineChars keeps very long transcripts from clipping every window to nothing.
const minLineChars = 40

type window struct {
	start float64
	end   float64
	text  string
}

func (c *implChapterizer) Chapterize(ctx context.Context, items []models.LabeledTranscriptItem) ([]models.ChapterSpan, error) {
	if len(items) == 0 {
		return []models.ChapterSpan{}, nil
	}
	lastEnd := items[len(items)-1].End

	windows := c.windows(items)
	if len(windows) < 2 {
		return []models.ChapterSpan{{Title: OverviewTitle, Start: 0, End: lastEnd}}, nil
	}

	prompt := fmt.Sprintf(chapterPrompt, suggestedChapters(len(windows)), c.promptBody(windows))

	var errs []error
	for _, client := range c.clients {
		reply, err := client.Generate(ctx, prompt)
		if err != nil {
			c.logger.Warn(ctx, "Chapter boundaries from %s failed: %v", client.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
			continue
		}

		marks, err := parseMarks(reply)
		if err != nil {
			c.logger.Warn(ctx, "Chapter reply from %s unusable: %v", client.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
			continue
		}

		spans := repair(marks, lastEnd)
		c.logger.Debug(ctx, "Built %d chapters from %d marks", len(spans), len(marks))
		return spans, nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no chapter providers configured"))
	}
	return nil, models.NewStageError(models.StageChapterization, "no usable chapter boundaries", errors.Join(errs...))
}

// windows groups consecutive items into fixed-size blocks.
func (c *implChapterizer) windows(items []models.LabeledTranscriptItem) []window {
	var out []window
	for i := 0; i < len(items); i += c.opts.WindowSize {
		end := min(i+c.opts.WindowSize, len(items))
		block := items[i:end]

		var parts []string
		for _, it := range block {
			if text := strings.TrimSpace(it.Text); text != "" {
				parts = append(parts, it.Speaker+": "+text)
			}
		}
		out = append(out, window{
			start: block[0].Start,
			end:   block[len(block)-1].End,
			text:  strings.Join(parts, " "),
		})
	}
	return out
}

// promptBody renders one line per window and clips each line so the body
// stays within MaxPromptChars.
func (c *implChapterizer) promptBody(windows []window) string {
	perLine := max(c.opts.MaxPromptChars/len(windows), minLineChars)

	var b strings.Builder
	for _, w := range windows {
		fmt.Fprintf(&b, "[%s] %s\n", clock(w.start), clipRunes(w.text, perLine))
	}
	return b.String()
}

// suggestedChapters is one chapter for short talks, otherwise roughly
// 0.6*sqrt(windows) and at least two.
func suggestedChapters(windows int) int {
	if windows < 5 {
		return 1
	}
	return max(2, int(math.Sqrt(float64(windows))*0.6))
}

func clock(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
