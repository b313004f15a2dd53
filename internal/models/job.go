package models

import (
	"fmt"
	"slices"
	"time"
)

// JobStatus represents the lifecycle stage of an analysis job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// MaxRunningProgress is the highest progress a job reports before completion.
const MaxRunningProgress = 99

// Source is what a client submitted: a staged upload or a remote URL.
type Source struct {
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// IsURL reports whether the job reads from a remote URL.
func (s Source) IsURL() bool {
	return s.URL != ""
}

// ErrorInfo records which stage failed and why.
type ErrorInfo struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// JobResult is the complete output of a successful run. Immutable once written.
type JobResult struct {
	Title      string                  `json:"title,omitempty"`
	Summary    string                  `json:"summary"`
	Sentiment  Sentiment               `json:"sentiment"`
	Transcript []LabeledTranscriptItem `json:"transcript"`
	Chapters   []ChapterSpan           `json:"chapters"`
}

// Job is the durable record of one submitted analysis.
type Job struct {
	ID          string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message"`
	Source      Source     `json:"source"`
	Result      *JobResult `json:"result,omitempty"`
	Error       *ErrorInfo `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a queued job.
func NewJob(id string, src Source, now time.Time) Job {
	return Job{
		ID:        id,
		Status:    JobStatusQueued,
		Progress:  0,
		Message:   "Waiting in queue...",
		Source:    src,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Advance moves the job into (or keeps it in) processing with a new stage message.
// Progress never decreases and stays below 100 until Complete.
func (j *Job) Advance(progress int, message string, now time.Time) error {
	if j.IsDone() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusProcessing)
	}
	if progress > MaxRunningProgress {
		progress = MaxRunningProgress
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Status = JobStatusProcessing
	j.Message = message
	j.UpdatedAt = now
	return nil
}

// Complete stores the result and finishes the job.
func (j *Job) Complete(result JobResult, now time.Time) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusCompleted)
	}
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Message = "done"
	j.Result = &result
	j.Error = nil
	j.UpdatedAt = now
	j.CompletedAt = &now
	return nil
}

// Fail records the failing stage. Any partial result is discarded.
func (j *Job) Fail(info ErrorInfo, now time.Time) error {
	if j.IsDone() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusFailed)
	}
	if j.Progress > MaxRunningProgress {
		j.Progress = MaxRunningProgress
	}
	j.Status = JobStatusFailed
	j.Message = fmt.Sprintf("%s failed: %s", info.Stage, info.Message)
	j.Result = nil
	j.Error = &info
	j.UpdatedAt = now
	j.CompletedAt = &now
	return nil
}

// Clone returns a deep copy so stored records are never aliased.
func (j Job) Clone() Job {
	out := j
	if j.Result != nil {
		r := *j.Result
		r.Transcript = slices.Clone(j.Result.Transcript)
		r.Chapters = slices.Clone(j.Result.Chapters)
		out.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		out.Error = &e
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
