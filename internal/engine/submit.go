package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gradeflow/internal/client"
	"gradeflow/internal/feature"
	"gradeflow/internal/models"
)

// Validation errors, rejected before any network call.
var (
	ErrNoInputs     = errors.New("no input items to submit")
	ErrMissingSetup = errors.New("required setup field not populated")
	ErrDuplicateKey = errors.New("duplicate input key")
	ErrEmptyKey     = errors.New("input key must not be empty")
	ErrEmptyContent = errors.New("input content must not be empty")
	ErrNoJob        = errors.New("no batch job for this session")
)

// Submit sends the session's input set for generation. Batches of at most
// SizeThreshold items are served synchronously: results are hydrated before
// Submit returns and the session advances to review. Larger batches yield
// a job handle and a background poll loop; completion is reported through
// the session observer.
//
// Re-invoking Submit always creates a new job and cancels polling for the
// prior one. Validation failures leave the session untouched; submission
// failures record an errored job but preserve the inputs for resubmission.
func (s *Session) Submit(ctx context.Context) (*models.BatchJob, error) {
	s.mu.Lock()
	if len(s.inputs) == 0 {
		s.mu.Unlock()
		return nil, ErrNoInputs
	}
	for _, f := range s.feat.RequiredSetup {
		if s.setup[f] == "" {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrMissingSetup, f)
		}
	}

	// A new submission supersedes the prior job entirely.
	if s.poll != nil {
		s.poll.Cancel()
		s.poll = nil
	}

	mode := models.ModeSynchronous
	if len(s.inputs) > SizeThreshold {
		mode = models.ModeAsynchronous
	}

	req := client.SubmitRequest{
		Mode:  string(mode),
		Setup: make(map[string]string, len(s.setup)),
		Items: make([]client.SubmitItem, 0, len(s.inputs)),
	}
	for k, v := range s.setup {
		req.Setup[k] = v
	}
	for _, in := range s.inputs {
		req.Items = append(req.Items, client.SubmitItem{Key: in.Key, Name: in.Name, Content: in.Content})
	}
	count := len(s.inputs)
	s.mu.Unlock()

	s.logger.Info("submitting batch", "session_id", s.ID, "feature", s.feat.Name,
		"items", count, "mode", mode)

	outcome, err := s.backend.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		job := &models.BatchJob{
			Status:      models.JobError,
			Mode:        mode,
			Err:         err.Error(),
			SubmittedAt: time.Now(),
		}
		s.job = job
		s.logger.Error("batch submission failed", "session_id", s.ID, "error", err)
		snap := *job
		return &snap, fmt.Errorf("submit batch: %w", err)
	}

	if outcome.Synchronous() {
		now := time.Now()
		job := &models.BatchJob{
			ID:          outcome.JobID,
			Status:      models.JobComplete,
			Mode:        mode,
			SubmittedAt: now,
			CompletedAt: &now,
		}
		s.job = job
		s.store.Hydrate(resultsFromGenerated(outcome.Results))
		if n := s.feat.StepIndex(feature.StepReview); n != 0 && s.canAccessLocked(n) {
			s.step = n
		}
		s.logger.Info("batch served synchronously", "session_id", s.ID,
			"job_id", job.ID, "results", len(outcome.Results))
		snap := *job
		return &snap, nil
	}

	job := &models.BatchJob{
		ID:               outcome.Handle.JobID,
		Status:           models.JobSubmitted,
		Mode:             mode,
		EstimatedSeconds: outcome.Handle.EstimatedSeconds,
		SubmittedAt:      time.Now(),
	}
	s.job = job
	s.poll = s.startPollLocked(job)
	s.logger.Info("batch accepted for async generation", "session_id", s.ID,
		"job_id", job.ID, "estimated_seconds", job.EstimatedSeconds)
	snap := *job
	return &snap, nil
}

// startPollLocked begins the poll loop for job. Every hook re-checks that
// the job is still current, so a superseded job can never mutate the
// session. Caller holds s.mu.
func (s *Session) startPollLocked(job *models.BatchJob) *PollHandle {
	hooks := PollHooks{
		OnProgress: func(p models.Progress) {
			s.mu.Lock()
			if s.job != job {
				s.mu.Unlock()
				return
			}
			job.Status = models.JobProcessing
			prog := p
			job.Progress = &prog
			s.mu.Unlock()
			s.notifyEvent(Event{Kind: EventProgress, Progress: &prog})
		},
		OnComplete: func(results []client.GeneratedItem) {
			s.mu.Lock()
			if s.job != job {
				s.mu.Unlock()
				return
			}
			now := time.Now()
			job.Status = models.JobComplete
			job.CompletedAt = &now
			job.Progress = nil
			s.store.Hydrate(resultsFromGenerated(results))
			if n := s.feat.StepIndex(feature.StepReview); n != 0 && s.canAccessLocked(n) {
				s.step = n
			}
			s.poll = nil
			s.mu.Unlock()
			s.logger.Info("batch complete", "session_id", s.ID, "job_id", job.ID,
				"results", len(results))
			s.notifyEvent(Event{Kind: EventComplete})
		},
		OnError: func(err error) {
			s.mu.Lock()
			if s.job != job {
				s.mu.Unlock()
				return
			}
			now := time.Now()
			job.Status = models.JobError
			job.Err = err.Error()
			job.CompletedAt = &now
			s.poll = nil
			s.mu.Unlock()
			s.logger.Error("batch failed", "session_id", s.ID, "job_id", job.ID, "error", err)
			s.notifyEvent(Event{Kind: EventFailed, Err: err})
		},
	}
	return StartPoll(s.backend, job.ID, s.pollInterval, hooks, s.logger)
}
