package diarizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// ParseTurns accepts either a JSON array of {start,end,speaker}, an object
// with a "turns" array, or RTTM lines:
//
//	SPEAKER <file> <chan> <start> <duration> <NA> <NA> <speaker> <NA> <NA>
func ParseTurns(out string) ([]models.DiarizationTurn, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	switch out[0] {
	case '[':
		var turns []models.DiarizationTurn
		if err := json.Unmarshal([]byte(out), &turns); err != nil {
			return nil, fmt.Errorf("decode json turns: %w", err)
		}
		return turns, nil
	case '{':
		var wrapped struct {
			Turns []models.DiarizationTurn `json:"turns"`
		}
		if err := json.Unmarshal([]byte(out), &wrapped); err != nil {
			return nil, fmt.Errorf("decode json turns: %w", err)
		}
		return wrapped.Turns, nil
	}
	return parseRTTM(out)
}

func parseRTTM(out string) ([]models.DiarizationTurn, error) {
	var turns []models.DiarizationTurn
	for n, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "SPEAKER" {
			// progress output and other record types
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("rttm line %d: want at least 8 fields, got %d", n+1, len(fields))
		}
		start, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: start: %w", n+1, err)
		}
		dur, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: duration: %w", n+1, err)
		}
		turns = append(turns, models.DiarizationTurn{Start: start, End: start + dur, SpeakerID: fields[7]})
	}
	if len(turns) == 0 {
		return nil, errors.New("no SPEAKER records in output")
	}
	return turns, nil
}
