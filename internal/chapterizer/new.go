package chapterizer

import (
	"github.com/nguyentantai21042004/insight-flow/internal/llm"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
)

type Options struct {
	WindowSize     int
	MaxPromptChars int
}

type implChapterizer struct {
	clients []llm.Client
	opts    Options
	logger  logger.Logger
}

// New creates a Chapterizer that asks clients, in order, for chapter
// boundaries.
func New(clients []llm.Client, opts Options, log logger.Logger) Chapterizer {
	if opts.WindowSize <= 0 {
		opts.WindowSize = 3
	}
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = 12000
	}
	return &implChapterizer{
		clients: clients,
		opts:    opts,
		logger:  log,
	}
}
