package chapterizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const maxTitleRunes = 80

var (
	reJSONArray = regexp.MustCompile(`(?s)\[.*\]`)
	reMarkLine  = regexp.MustCompile(`^\s*(?:[-*]|\d+\.)?\s*\[?(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)\]?\s*[-:|]?\s*(.*)$`)
)

// mark is a chapter start proposed by the model.
type mark struct {
	start float64
	title string
}

type rawMark struct {
	Start json.RawMessage `json:"start"`
	Title string          `json:"title"`
}

// parseMarks reads a JSON array of {start, title}; when there is none it
// falls back to "00:01:23 - Title" lines.
func parseMarks(reply string) ([]mark, error) {
	if raw := reJSONArray.FindString(reply); raw != "" {
		var entries []rawMark
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			var marks []mark
			for _, e := range entries {
				start, err := parseStart(e.Start)
				if err != nil {
					continue
				}
				marks = append(marks, mark{start: start, title: e.Title})
			}
			if len(marks) > 0 {
				return marks, nil
			}
		}
	}

	var marks []mark
	for _, line := range strings.Split(reply, "\n") {
		m := reMarkLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err := parseClock(m[1])
		if err != nil {
			continue
		}
		marks = append(marks, mark{start: start, title: m[2]})
	}
	if len(marks) == 0 {
		return nil, errors.New("no chapter boundaries in reply")
	}
	return marks, nil
}

func parseStart(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("start is neither number nor string: %s", raw)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v, nil
	}
	return parseClock(s)
}

// parseClock accepts "MM:SS" and "HH:MM:SS" with optional fractional seconds.
func parseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad timestamp %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// repair turns proposed starts into spans that are sorted, contiguous and
// cover [0, lastEnd] exactly.
func repair(marks []mark, lastEnd float64) []models.ChapterSpan {
	clamped := make([]mark, len(marks))
	for i, m := range marks {
		s := m.start
		if s != s || s < 0 { // NaN or negative
			s = 0
		}
		if s > lastEnd {
			s = lastEnd
		}
		clamped[i] = mark{start: s, title: m.title}
	}
	sort.SliceStable(clamped, func(a, b int) bool {
		return clamped[a].start < clamped[b].start
	})
	clamped[0].start = 0

	var spans []models.ChapterSpan
	for i, m := range clamped {
		end := lastEnd
		if i+1 < len(clamped) {
			end = clamped[i+1].start
		}
		if end-m.start <= 0 {
			continue
		}
		spans = append(spans, models.ChapterSpan{Title: m.title, Start: m.start, End: end})
	}

	if len(spans) == 0 {
		return []models.ChapterSpan{{Title: OverviewTitle, Start: 0, End: lastEnd}}
	}
	for i := range spans {
		spans[i].Title = cleanTitle(spans[i].Title, i+1)
	}
	return spans
}

func cleanTitle(title string, n int) string {
	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), "\"'`*#"))
	if title == "" {
		return fmt.Sprintf("Chapter %d", n)
	}
	return clipRunes(title, maxTitleRunes)
}
