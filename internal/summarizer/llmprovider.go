package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const summaryPrompt = `You are an expert summarizer. Summarize the following content directly and concisely.

Guidelines:
- Write in a direct, objective tone.
- Do NOT use phrases like "The transcript says", "The speaker discusses", or "The text mentions".
- Focus purely on the information and actionable insights.
- Organize with clear headings or bullet points if appropriate.

Content:
---
%s
---

Summary:`

const sentimentPrompt = `Rate the overall sentiment of the content below.
Reply with JSON only, no prose, in exactly this shape:
{"positive": 0.0, "neutral": 0.0, "negative": 0.0}
The three numbers are proportions between 0 and 1 that sum to 1.

Content:
---
%s
---`

var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

type llmProvider struct {
	client llm.Client
}

// NewLLMProvider adapts a text-generation client into a Provider.
func NewLLMProvider(client llm.Client) Provider {
	return &llmProvider{client: client}
}

func (p *llmProvider) Name() string {
	return p.client.Name()
}

func (p *llmProvider) GenerateSummary(ctx context.Context, text string) (string, error) {
	return p.client.Generate(ctx, fmt.Sprintf(summaryPrompt, text))
}

func (p *llmProvider) GenerateSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	out, err := p.client.Generate(ctx, fmt.Sprintf(sentimentPrompt, text))
	if err != nil {
		return models.Sentiment{}, err
	}
	s, err := parseSentiment(out)
	if err != nil {
		return models.Sentiment{}, llm.NewError(p.Name(), llm.Permanent, err)
	}
	return s, nil
}

type sentimentReply struct {
	Positive *float64 `json:"positive"`
	Neutral  *float64 `json:"neutral"`
	Negative *float64 `json:"negative"`
}

// parseSentiment pulls the first JSON object out of a model reply, which may
// be wrapped in code fences or prose.
func parseSentiment(reply string) (models.Sentiment, error) {
	raw := reJSONObject.FindString(reply)
	if raw == "" {
		return models.Sentiment{}, fmt.Errorf("no json object in sentiment reply: %q", clip(reply, 120))
	}

	var r sentimentReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.Sentiment{}, fmt.Errorf("decode sentiment reply: %w", err)
	}
	if r.Positive == nil || r.Neutral == nil || r.Negative == nil {
		return models.Sentiment{}, fmt.Errorf("sentiment reply missing fields: %s", clip(raw, 120))
	}
	return models.Sentiment{Pos: *r.Positive, Neu: *r.Neutral, Neg: *r.Negative}.Normalize(), nil
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
