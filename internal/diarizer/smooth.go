package diarizer

import (
	"math"
	"sort"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Smooth cleans raw turns: times rounded to milliseconds, empty turns
// dropped, same-speaker turns separated by at most mergeGap joined, and
// turns shorter than minDuration folded into a neighbour.
func Smooth(turns []models.DiarizationTurn, minDuration, mergeGap float64) []models.DiarizationTurn {
	out := make([]models.DiarizationTurn, 0, len(turns))
	for _, t := range turns {
		t.Start = round3(t.Start)
		t.End = round3(t.End)
		if t.End <= t.Start {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Start < out[b].Start
	})

	out = mergeSameSpeaker(out, mergeGap)
	out = absorbShort(out, minDuration)
	// absorbing can leave two turns of one speaker side by side
	return mergeSameSpeaker(out, mergeGap)
}

func mergeSameSpeaker(turns []models.DiarizationTurn, gap float64) []models.DiarizationTurn {
	if len(turns) == 0 {
		return turns
	}
	merged := []models.DiarizationTurn{turns[0]}
	for _, t := range turns[1:] {
		last := &merged[len(merged)-1]
		if t.SpeakerID == last.SpeakerID && t.Start-last.End <= gap+1e-9 {
			last.End = math.Max(last.End, t.End)
			continue
		}
		merged = append(merged, t)
	}
	return merged
}

// absorbShort gives a short turn's interval to the previous turn, or to the
// next one for a short opening turn. A lone turn is kept whatever its length.
func absorbShort(turns []models.DiarizationTurn, minDuration float64) []models.DiarizationTurn {
	if minDuration <= 0 || len(turns) < 2 {
		return turns
	}

	var out []models.DiarizationTurn
	var pendingStart = math.NaN()
	for i, t := range turns {
		if !math.IsNaN(pendingStart) {
			t.Start = math.Min(t.Start, pendingStart)
			pendingStart = math.NaN()
		}
		if t.End-t.Start >= minDuration {
			out = append(out, t)
			continue
		}
		switch {
		case len(out) > 0:
			last := &out[len(out)-1]
			last.End = math.Max(last.End, t.End)
		case i+1 < len(turns):
			pendingStart = t.Start
		default:
			out = append(out, t)
		}
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
