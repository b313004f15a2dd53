package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// SRT writes one numbered cue per transcript item, text prefixed with the speaker.
func SRT(items []models.LabeledTranscriptItem) string {
	var b strings.Builder
	n := 0
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s: %s\n\n", n, srtTime(it.Start), srtTime(it.End), it.Speaker, text)
	}
	return b.String()
}

// srtTime formats seconds as HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	ms := int64(math.Round(math.Max(0, seconds) * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// clock formats seconds as MM:SS, or H:MM:SS past the hour.
func clock(seconds float64) string {
	total := int64(math.Max(0, seconds))
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
