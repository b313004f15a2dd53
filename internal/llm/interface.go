// Package llm holds the text-generation clients shared by the summarizer,
// chapterizer and translator.
package llm

import "context"

// Client turns a prompt into generated text.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
