package models

// SentinelSpeaker labels transcript items no diarization turn overlaps.
const SentinelSpeaker = "Speaker"

// TranscriptSegment is a timestamped unit of transcribed text, in seconds.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// DiarizationTurn is an interval attributed to one raw speaker id.
type DiarizationTurn struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SpeakerID string  `json:"speaker"`
}

// LabeledTranscriptItem is a transcript segment with a resolved speaker label.
type LabeledTranscriptItem struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// ChapterSpan is a titled, time-bounded subdivision of the session.
type ChapterSpan struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (c ChapterSpan) Duration() float64 {
	return c.End - c.Start
}

// Sentiment holds positive/neutral/negative proportions.
type Sentiment struct {
	Pos float64 `json:"pos"`
	Neu float64 `json:"neu"`
	Neg float64 `json:"neg"`
}

// NeutralSentiment is used when no provider could score the text.
func NeutralSentiment() Sentiment {
	return Sentiment{Neu: 1}
}

// Normalize clamps every score into [0,1] and rescales them to sum to 1.
// An all-zero score becomes neutral.
func (s Sentiment) Normalize() Sentiment {
	s.Pos = clamp01(s.Pos)
	s.Neu = clamp01(s.Neu)
	s.Neg = clamp01(s.Neg)

	sum := s.Pos + s.Neu + s.Neg
	if sum == 0 {
		return NeutralSentiment()
	}
	return Sentiment{Pos: s.Pos / sum, Neu: s.Neu / sum, Neg: s.Neg / sum}
}

func clamp01(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
