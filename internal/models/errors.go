package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad client input; no job is created.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady is returned when a result is requested before completion.
	ErrNotReady = errors.New("job not ready")
	// ErrJobExists is returned when creating a job whose id is taken.
	ErrJobExists = errors.New("job already exists")
	// ErrInvalidTransition is returned when a job update breaks the state machine.
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Stage names a pipeline step for error reporting.
type Stage string

const (
	StageIngestion      Stage = "ingestion"
	StageTranscription  Stage = "transcription"
	StageDiarization    Stage = "diarization"
	StageAlignment      Stage = "alignment"
	StageSummarization  Stage = "summarization"
	StageSentiment      Stage = "sentiment"
	StageChapterization Stage = "chapterization"
	StageTranslation    Stage = "translation"
	StageStorage        Stage = "storage"
)

// Stage sentinels matched by StageError.Is.
var (
	ErrIngestion      = errors.New("ingestion error")
	ErrTranscription  = errors.New("transcription error")
	ErrDiarization    = errors.New("diarization error")
	ErrSummarization  = errors.New("summarization error")
	ErrChapterization = errors.New("chapterization error")
	ErrTranslation    = errors.New("translation error")
	ErrStorage        = errors.New("storage error")
)

var stageSentinels = map[Stage]error{
	StageIngestion:      ErrIngestion,
	StageTranscription:  ErrTranscription,
	StageDiarization:    ErrDiarization,
	StageSummarization:  ErrSummarization,
	StageSentiment:      ErrSummarization,
	StageChapterization: ErrChapterization,
	StageTranslation:    ErrTranslation,
	StageStorage:        ErrStorage,
}

// StageError is a stage-aware failure with an optional cause.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

// NewStageError builds a StageError, using the cause text when message is empty.
func NewStageError(stage Stage, message string, err error) *StageError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &StageError{Stage: stage, Message: message, Err: err}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's stage.
func (e *StageError) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel, ok := stageSentinels[e.Stage]
	return ok && sentinel == target
}

// Info converts the error into the record stored on a failed job.
func (e *StageError) Info() ErrorInfo {
	return ErrorInfo{Stage: e.Stage, Message: e.Message}
}

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
