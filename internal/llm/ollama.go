package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Local Ollama server.
// POST {url}/api/generate with stream disabled.
type implOllama struct {
	url    string
	model  string
	numCtx int
	hc     *http.Client
}

// NewOllama creates a Client for an Ollama server. An empty url means the
// default local endpoint.
func NewOllama(url, model string, numCtx int) Client {
	if url == "" {
		url = "http://localhost:11434"
	}
	return &implOllama{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		numCtx: numCtx,
		hc:     &http.Client{Timeout: 10 * time.Minute},
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (o *implOllama) Name() string {
	return "ollama"
}

func (o *implOllama) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{Model: o.model, Prompt: prompt}
	if o.numCtx > 0 {
		reqBody.Options = map[string]any{"num_ctx": o.numCtx}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewError(o.Name(), Permanent, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", NewError(o.Name(), Permanent, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.hc.Do(req)
	if err != nil {
		// unreachable server, reset connection or deadline
		return "", NewError(o.Name(), Transient, fmt.Errorf("ollama request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		kind := Permanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = Transient
		}
		return "", NewError(o.Name(), kind, fmt.Errorf("ollama http %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", NewError(o.Name(), Permanent, fmt.Errorf("decode response: %w", err))
	}
	if or.Error != "" {
		return "", NewError(o.Name(), Permanent, errors.New(or.Error))
	}
	text := strings.TrimSpace(or.Response)
	if text == "" {
		return "", NewError(o.Name(), Transient, fmt.Errorf("empty response from ollama"))
	}
	return text, nil
}
