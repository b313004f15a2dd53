package summarizer

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// lexicon is the offline provider: an extractive summary and word-list
// sentiment. It never fails on non-empty input.
type lexicon struct {
	maxSentences int
}

// NewLexicon creates the offline Provider.
func NewLexicon() Provider {
	return &lexicon{maxSentences: 3}
}

var (
	reSpeakerPrefix = regexp.MustCompile(`(?m)^Speaker(?: \d+)?:\s*`)
	reSentenceEnd   = regexp.MustCompile(`[.!?]+\s+|\n+`)
	reWord          = regexp.MustCompile(`[\p{L}']+`)
)

var stopWords = toSet(`a an and are as at be but by for from has have he her his i if in is it its
me my no not of on or our she so that the their them then there they this to was we were what
when which who will with you your um uh yeah okay just like really very can do did`)

var positiveWords = toSet(`good great excellent amazing awesome love loved like happy glad nice
best better wonderful fantastic success successful win agree thanks thank helpful easy clear
improve improved benefit positive excited perfect enjoy enjoyed brilliant effective`)

var negativeWords = toSet(`bad terrible awful hate hated sad angry poor worst worse problem
problems issue issues fail failed failure wrong difficult hard confusing broken negative
disappointed disappointing annoying concern concerned risk worried unfortunately bug bugs`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

func (l *lexicon) Name() string {
	return "lexicon"
}

// GenerateSummary picks the highest scoring sentences by content-word
// frequency and returns them in their original order.
func (l *lexicon) GenerateSummary(ctx context.Context, text string) (string, error) {
	body := reSpeakerPrefix.ReplaceAllString(text, "")

	var sentences []string
	for _, s := range reSentenceEnd.Split(body, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= l.maxSentences {
		return strings.Join(sentences, ". ") + ".", nil
	}

	freq := make(map[string]int)
	for _, w := range reWord.FindAllString(strings.ToLower(body), -1) {
		if !stopWords[w] {
			freq[w]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		words := reWord.FindAllString(strings.ToLower(s), -1)
		var total int
		for _, w := range words {
			total += freq[w]
		}
		score := 0.0
		if len(words) > 0 {
			score = float64(total) / float64(len(words))
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	picked := ranked[:l.maxSentences]
	sort.Slice(picked, func(a, b int) bool {
		return picked[a].idx < picked[b].idx
	})

	var b strings.Builder
	for _, p := range picked {
		b.WriteString("- ")
		b.WriteString(strings.TrimRight(sentences[p.idx], ".!?"))
		b.WriteString(".\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// GenerateSentiment counts positive and negative words; the rest of the
// words count as neutral.
func (l *lexicon) GenerateSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	words := reWord.FindAllString(strings.ToLower(reSpeakerPrefix.ReplaceAllString(text, "")), -1)
	if len(words) == 0 {
		return models.NeutralSentiment(), nil
	}

	var pos, neg int
	for _, w := range words {
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	n := float64(len(words))
	return models.Sentiment{
		Pos: float64(pos) / n,
		Neu: float64(len(words)-pos-neg) / n,
		Neg: float64(neg) / n,
	}.Normalize(), nil
}
