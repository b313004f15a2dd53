package llm

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
)

// FromConfig builds the named clients, each behind the shared concurrency
// limit. Unknown names are an error; "lexicon" is skipped.
func FromConfig(cfg *config.Config, names []string, log logger.Logger) (map[string]Client, error) {
	clients := make(map[string]Client, len(names))
	for _, name := range names {
		if _, ok := clients[name]; ok {
			continue
		}
		var c Client
		switch name {
		case "gemini":
			if len(cfg.Gemini.APIKeys) == 0 {
				log.Warn(context.Background(), "gemini provider enabled without api keys, calls will fail over")
			}
			c = NewGemini(cfg.Gemini.APIKeys, cfg.Gemini.Model, log)
		case "ollama":
			c = NewOllama(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.NumCtx)
		case "lexicon":
			// offline, not an llm
			continue
		default:
			return nil, fmt.Errorf("unknown llm provider %q", name)
		}
		clients[name] = Limit(c, cfg.Performance.MaxProviderCalls)
	}
	return clients, nil
}

// Ordered picks clients by name, keeping the order of names and skipping
// names without a client.
func Ordered(clients map[string]Client, names []string) []Client {
	out := make([]Client, 0, len(names))
	for _, name := range names {
		if c, ok := clients[name]; ok {
			out = append(out, c)
		}
	}
	return out
}
