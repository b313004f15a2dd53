// Package alignment assigns diarization speakers to transcript segments.
package alignment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Align labels every segment with the speaker of the diarization turn that
// overlaps it most. Ties go to the turn whose midpoint is closest to the
// segment midpoint, then to the earlier turn. Segments without any positive
// overlap get models.SentinelSpeaker. Output order matches segments.
func Align(segments []models.TranscriptSegment, turns []models.DiarizationTurn) []models.LabeledTranscriptItem {
	items := make([]models.LabeledTranscriptItem, len(segments))
	if len(segments) == 0 {
		return items
	}

	sorted := sortTurns(turns)
	labels := SpeakerLabels(sorted)

	lo := 0
	prevStart := math.Inf(-1)
	for i, seg := range segments {
		if seg.Start < prevStart {
			// out-of-order input, restart the sweep
			lo = 0
		}
		prevStart = seg.Start

		// turns before lo ended before an earlier segment started
		for lo < len(sorted) && sorted[lo].End <= seg.Start {
			lo++
		}

		speaker := models.SentinelSpeaker
		if best := bestTurn(seg, sorted, lo); best >= 0 {
			speaker = labels[sorted[best].SpeakerID]
		}

		items[i] = models.LabeledTranscriptItem{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: speaker,
			Text:    seg.Text,
		}
	}
	return items
}

// bestTurn scans turns from lo until they start after the segment ends.
func bestTurn(seg models.TranscriptSegment, turns []models.DiarizationTurn, lo int) int {
	best := -1
	var bestOverlap, bestDist float64
	segMid := (seg.Start + seg.End) / 2

	for j := lo; j < len(turns) && turns[j].Start < seg.End; j++ {
		ov := overlap(seg, turns[j])
		if ov <= 0 {
			continue
		}
		dist := math.Abs((turns[j].Start+turns[j].End)/2 - segMid)
		switch {
		case best < 0, ov > bestOverlap:
			best, bestOverlap, bestDist = j, ov, dist
		case ov == bestOverlap && dist < bestDist:
			// turns are sorted by start, so an equal distance keeps the earlier one
			best, bestDist = j, dist
		}
	}
	return best
}

func overlap(seg models.TranscriptSegment, turn models.DiarizationTurn) float64 {
	return math.Max(0, math.Min(seg.End, turn.End)-math.Max(seg.Start, turn.Start))
}

func sortTurns(turns []models.DiarizationTurn) []models.DiarizationTurn {
	sorted := append([]models.DiarizationTurn(nil), turns...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Start < sorted[b].Start
	})
	return sorted
}

// SpeakerLabels maps raw diarization ids to "Speaker 1", "Speaker 2", ... in
// order of first appearance. turns must be sorted by start.
func SpeakerLabels(turns []models.DiarizationTurn) map[string]string {
	labels := make(map[string]string)
	for _, t := range turns {
		if _, ok := labels[t.SpeakerID]; ok {
			continue
		}
		labels[t.SpeakerID] = fmt.Sprintf("Speaker %d", len(labels)+1)
	}
	return labels
}

// PlainText joins the item texts without speaker labels.
func PlainText(items []models.LabeledTranscriptItem) string {
	texts := make([]string, 0, len(items))
	for _, it := range items {
		if text := strings.TrimSpace(it.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, " ")
}

// Flatten renders items as "Speaker: text" lines for text-only consumers.
func Flatten(items []models.LabeledTranscriptItem) string {
	var b strings.Builder
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(it.Speaker)
		b.WriteString(": ")
		b.WriteString(text)
	}
	return b.String()
}

// SpeakerText is one speaker's concatenated speech.
type SpeakerText struct {
	Speaker string
	Text    string
}

// BySpeaker concatenates each speaker's text in time order. Speakers are
// listed by first appearance.
func BySpeaker(items []models.LabeledTranscriptItem) []SpeakerText {
	ordered := append([]models.LabeledTranscriptItem(nil), items...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Start < ordered[b].Start
	})

	var speakers []string
	parts := make(map[string][]string)
	for _, it := range ordered {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		if _, ok := parts[it.Speaker]; !ok {
			speakers = append(speakers, it.Speaker)
		}
		parts[it.Speaker] = append(parts[it.Speaker], text)
	}

	out := make([]SpeakerText, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, SpeakerText{Speaker: speaker, Text: strings.Join(parts[speaker], " ")})
	}
	return out
}
