package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"google.golang.org/genai"
)

// ErrNoAPIKeys is returned when the gemini client has no keys configured.
var ErrNoAPIKeys = errors.New("no gemini api keys configured")

type implGemini struct {
	apiKeys []string
	model   string
	logger  logger.Logger

	mu         sync.Mutex
	currentKey int
	clients    map[string]*genai.Client
}

// NewGemini creates a Client that rotates through the supplied Gemini API
// keys when one of them is rate limited.
func NewGemini(apiKeys []string, model string, log logger.Logger) Client {
	return &implGemini{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
		clients: make(map[string]*genai.Client),
	}
}

func (g *implGemini) Name() string {
	return "gemini"
}

// Generate tries each key at most once, rotating on 429 / quota errors.
func (g *implGemini) Generate(ctx context.Context, prompt string) (string, error) {
	if len(g.apiKeys) == 0 {
		return "", NewError(g.Name(), Permanent, ErrNoAPIKeys)
	}

	var lastErr error
	for range g.apiKeys {
		idx, key := g.key()

		client, err := g.client(ctx, key)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey(idx)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			if ctx.Err() != nil {
				return "", NewError(g.Name(), Transient, fmt.Errorf("generate content: %w", ctx.Err()))
			}
			errMsg := err.Error()
			if isRateLimit(errMsg) {
				g.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", idx+1)
				g.rotateKey(idx)
				lastErr = err
				continue
			}
			return "", NewError(g.Name(), classifyMessage(errMsg), fmt.Errorf("generate content: %w", err))
		}

		text := responseText(result)
		if text == "" {
			return "", NewError(g.Name(), Transient, fmt.Errorf("empty response from Gemini"))
		}
		return text, nil
	}

	return "", NewError(g.Name(), Transient, fmt.Errorf("all API keys exhausted: %w", lastErr))
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func (g *implGemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

// rotateKey moves past idx; concurrent callers that already rotated win.
func (g *implGemini) rotateKey(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
}

func (g *implGemini) client(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.clients[key] = c
	return c, nil
}
