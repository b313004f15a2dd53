package export

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/alignment"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const reportTitle = "Transcription Report"

// Markdown renders the full report. The docx artifact is built from it.
func Markdown(res models.JobResult) string {
	var b strings.Builder

	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = reportTitle
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(res.Summary))
	b.WriteString("\n\n")

	s := res.Sentiment
	b.WriteString("## Sentiment\n\n")
	fmt.Fprintf(&b, "- **Positive:** %.0f%%\n- **Neutral:** %.0f%%\n- **Negative:** %.0f%%\n\n", s.Pos*100, s.Neu*100, s.Neg*100)

	if len(res.Chapters) > 0 {
		b.WriteString("## Chapters\n\n")
		for i, c := range res.Chapters {
			fmt.Fprintf(&b, "%d. **%s** (%s - %s)\n", i+1, c.Title, clock(c.Start), clock(c.End))
		}
		b.WriteString("\n")
	}

	if speakers := alignment.BySpeaker(res.Transcript); len(speakers) > 0 {
		b.WriteString("## Speakers\n\n")
		for _, sp := range speakers {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", sp.Speaker, sp.Text)
		}
	}

	b.WriteString("## Transcript\n\n")
	for _, it := range res.Transcript {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "**[%s] %s:** %s\n\n", clock(it.Start), it.Speaker, text)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
