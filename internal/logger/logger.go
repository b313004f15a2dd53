package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type ctxKey struct{}

// WithJobID tags ctx so every line logged with it carries the job id.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, jobID)
}

// JobID returns the job id stored by WithJobID, if any.
func JobID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

type implLogger struct {
	logger *log.Logger
	mu     sync.Mutex
	out    io.Writer
	level  string
	json   bool
}

// New creates a text Logger writing to stdout.
func New(level string) Logger {
	return NewWithFormat(level, "text", os.Stdout)
}

// NewWithFormat creates a Logger in "text" or "json" format.
func NewWithFormat(level, format string, out io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}
	return &implLogger{
		logger: log.New(out, "", log.LstdFlags),
		out:    out,
		level:  strings.ToLower(level),
		json:   strings.EqualFold(format, "json"),
	}
}

func (l *implLogger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) write(ctx context.Context, level, msg string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	text := fmt.Sprintf(msg, args...)
	jobID := JobID(ctx)

	if l.json {
		entry := map[string]string{
			"time":  time.Now().UTC().Format(time.RFC3339Nano),
			"level": level,
			"msg":   text,
		}
		if jobID != "" {
			entry["job_id"] = jobID
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		l.mu.Lock()
		_, _ = l.out.Write(append(data, '\n'))
		l.mu.Unlock()
		return
	}

	prefix := "[" + strings.ToUpper(level) + "] "
	if jobID != "" {
		prefix += "[job=" + jobID + "] "
	}
	l.logger.Print(prefix + text)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "debug", msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "info", msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "warn", msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "error", msg, args...)
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() Logger {
	return NewWithFormat("error", "text", io.Discard)
}
