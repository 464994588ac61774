// Package models defines data structures shared across the gradeflow engine.
package models

import "time"

// ReviewStatus is the per-item review state set by teacher actions.
type ReviewStatus string

const (
	StatusReadyForReview ReviewStatus = "ready_for_review"
	StatusApproved       ReviewStatus = "approved"
	StatusEdited         ReviewStatus = "edited"
	StatusNeedsAttention ReviewStatus = "needs_attention"
	StatusError          ReviewStatus = "error"
)

// SignedOff reports whether the status counts as teacher sign-off
// (included in approved-only exports).
func (s ReviewStatus) SignedOff() bool {
	return s == StatusApproved || s == StatusEdited
}

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobSubmitted  JobStatus = "submitted"
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobError      JobStatus = "error"
)

// Terminal reports whether the job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobError
}

// JobMode records how a batch was submitted. Fixed at submission time.
type JobMode string

const (
	ModeSynchronous  JobMode = "synchronous"
	ModeAsynchronous JobMode = "asynchronous"
)

// Progress tracks item counts for a processing job.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// BatchJob represents one submission attempt. One job is current per
// session at a time; a new submission replaces the prior job.
type BatchJob struct {
	ID               string
	Status           JobStatus
	Mode             JobMode
	Progress         *Progress // only meaningful while processing
	EstimatedSeconds int
	Err              string
	SubmittedAt      time.Time
	CompletedAt      *time.Time
}

// InputRecord is one item submitted for generation. Key is unique within
// a session (case-normalized); insertion order is preserved for display.
type InputRecord struct {
	Key     string `json:"key"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ResultItem is one generated artifact keyed to an InputRecord.
type ResultItem struct {
	Key       string
	Name      string
	Fields    map[string]string
	Content   string // current text, possibly teacher-edited
	Generated string // text as generated, kept for edit detection
	Status    ReviewStatus
	WordCount int
	UpdatedAt time.Time
}
