package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind separates failures worth retrying from those that are not.
type Kind int

const (
	Transient Kind = iota
	Permanent
)

func (k Kind) String() string {
	if k == Transient {
		return "transient"
	}
	return "permanent"
}

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given classification.
func NewError(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// IsTransient reports whether err is worth another attempt: timeouts,
// rate limits, server errors and dropped connections. Unclassified errors
// are treated as permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind == Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// classifyMessage guesses the kind of an error from its text. Used for SDK
// errors that only expose a message.
func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"429", "quota", "resource_exhausted", "rate limit",
		"500", "502", "503", "504", "unavailable", "internal error",
		"deadline", "timeout", "connection reset", "connection refused", "eof",
	} {
		if strings.Contains(lower, marker) {
			return Transient
		}
	}
	return Permanent
}

// isRateLimit reports whether msg looks like a quota rejection.
func isRateLimit(msg string) bool {
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
