package transcriber

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

var reTimestamp = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{1,3})$`)

// whisper marks silence and music with bracketed tags
var reNoiseTag = regexp.MustCompile(`^\[(?:BLANK_AUDIO|MUSIC|NOISE|SILENCE|INAUDIBLE)\]$|^\((?:music|silence|inaudible)\)$`)

// ParseSRT reads SRT blocks into segments. Lines of one block are joined
// with a space; blocks with no text are skipped.
//
//	1                               sequence number
//	00:00:00,000 --> 00:00:01,830   start --> end
//	I'm happy to                    line
//	have you here today.            line
func ParseSRT(content string) ([]models.TranscriptSegment, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var segments []models.TranscriptSegment
	var current *models.TranscriptSegment
	var text []string

	flush := func() {
		if current == nil {
			return
		}
		joined := strings.TrimSpace(strings.Join(text, " "))
		if joined != "" && !reNoiseTag.MatchString(joined) {
			current.Text = joined
			segments = append(segments, *current)
		}
		current = nil
		text = nil
	}

	for n, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "-->") {
			flush()
			parts := strings.SplitN(line, "-->", 2)
			start, err := parseTimestamp(parts[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			// cue settings may follow the end time
			endField := strings.Fields(parts[1])
			if len(endField) == 0 {
				return nil, fmt.Errorf("line %d: missing end time", n+1)
			}
			end, err := parseTimestamp(endField[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			if end < start {
				end = start
			}
			current = &models.TranscriptSegment{Start: start, End: end}
			continue
		}

		if line == "" {
			flush()
			continue
		}
		if current == nil {
			// sequence number or stray text before the first cue
			continue
		}
		text = append(text, line)
	}
	flush()

	return segments, nil
}

func parseTimestamp(s string) (float64, error) {
	m := reTimestamp.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("bad timestamp %q", strings.TrimSpace(s))
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	// "5" after the comma is 500ms
	frac := m[4] + strings.Repeat("0", 3-len(m[4]))
	ms, _ := strconv.Atoi(frac)
	return float64(h*3600+mins*60+sec) + float64(ms)/1000, nil
}

// RemoveRepeats drops a segment whose text repeats the previous kept one,
// either exactly (ignoring case) or as a near copy: over 90% shared
// characters and a length difference under 5.
func RemoveRepeats(segments []models.TranscriptSegment) []models.TranscriptSegment {
	if len(segments) <= 1 {
		return segments
	}

	out := []models.TranscriptSegment{segments[0]}
	for _, seg := range segments[1:] {
		cur := strings.ToLower(strings.TrimSpace(seg.Text))
		prev := strings.ToLower(strings.TrimSpace(out[len(out)-1].Text))

		if cur != "" && cur == prev {
			continue
		}
		if cur != "" && prev != "" && charSimilarity(cur, prev) > 0.9 && abs(len([]rune(cur))-len([]rune(prev))) < 5 {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func charSimilarity(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)
	shared := 0
	for r := range setA {
		if setB[r] {
			shared++
		}
	}
	return float64(shared) / float64(max(len(setA), len(setB)))
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range s {
		set[r] = true
	}
	return set
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
