// Package engine implements the batch generation workflow: a step-gated
// session aggregate, size-branched submission, cancellable status polling,
// a reviewable result store, and export serialization. The same engine
// powers every feature; data shapes come from the feature package.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gradeflow/internal/client"
	"gradeflow/internal/feature"
	"gradeflow/internal/models"
)

// SizeThreshold is the largest batch served synchronously. Larger batches
// are submitted asynchronously and polled.
const SizeThreshold = 10

// DefaultPollInterval is the fixed delay between job status fetches.
const DefaultPollInterval = 2 * time.Second

// Backend is the slice of the external batch API the engine calls.
// *client.Client satisfies it.
type Backend interface {
	Submit(ctx context.Context, req client.SubmitRequest) (*client.SubmitOutcome, error)
	JobStatus(ctx context.Context, jobID string) (*client.StatusResponse, error)
	UpdateItem(ctx context.Context, jobID, key, content string, status models.ReviewStatus) (*client.ItemUpdate, error)
	Export(ctx context.Context, jobID, format string, approvedOnly bool) (string, error)
}

// EventKind tags session notifications delivered to an observer.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventComplete EventKind = "complete"
	EventFailed   EventKind = "failed"
)

// Event is a notification about the current batch job.
type Event struct {
	Kind     EventKind
	Progress *models.Progress
	Err      error
}

// Session is the aggregate root for one batch run. It exclusively owns its
// inputs, job, and result store; everything outside the engine goes through
// its methods. A session belongs to exactly one workflow instance.
type Session struct {
	ID      string
	backend Backend
	logger  *slog.Logger

	mu           sync.Mutex
	feat         feature.Feature
	step         int // 1-based index into feat.Steps
	setup        map[string]string
	inputs       []models.InputRecord
	inputIdx     map[string]int
	job          *models.BatchJob
	poll         *PollHandle
	pollInterval time.Duration
	notify       func(Event)

	store *ResultStore
}

// NewSession creates an empty session at step 1.
func NewSession(id string, f feature.Feature, backend Backend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		ID:           id,
		backend:      backend,
		logger:       logger,
		feat:         f,
		step:         1,
		setup:        make(map[string]string),
		inputIdx:     make(map[string]int),
		pollInterval: DefaultPollInterval,
	}
	s.store = newResultStore(s.syncItem, logger)
	return s
}

// SetPollInterval overrides the poll cadence. Zero or negative values are
// ignored.
func (s *Session) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.pollInterval = d
	s.mu.Unlock()
}

// SetNotify installs an observer for job events. The callback runs outside
// the session lock and must not block for long.
func (s *Session) SetNotify(fn func(Event)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Feature returns the feature this session runs.
func (s *Session) Feature() feature.Feature {
	return s.feat
}

// Store exposes the session's result store.
func (s *Session) Store() *ResultStore {
	return s.store
}

// Step returns the current 1-based step.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// StepCount returns the number of steps in the feature's workflow.
func (s *Session) StepCount() int {
	return len(s.feat.Steps)
}

// CanAccess reports whether step n is currently reachable.
func (s *Session) CanAccess(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAccessLocked(n)
}

func (s *Session) canAccessLocked(n int) bool {
	if n < 1 || n > len(s.feat.Steps) {
		return false
	}
	switch s.feat.Steps[n-1].Kind {
	case feature.StepSetup, feature.StepInput:
		return true
	case feature.StepGenerate:
		return s.setupCompleteLocked() && len(s.inputs) > 0
	case feature.StepReview, feature.StepExport:
		return s.store.Len() > 0
	}
	return true
}

// IsComplete reports whether step n is finished, for progress-indicator
// purposes. Distinct from accessibility: a step can be complete while later
// steps are still unreachable.
func (s *Session) IsComplete(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.feat.Steps) {
		return false
	}
	switch s.feat.Steps[n-1].Kind {
	case feature.StepSetup:
		return s.setupCompleteLocked()
	case feature.StepInput:
		return len(s.inputs) > 0
	case feature.StepGenerate:
		return s.job != nil && s.job.Status == models.JobComplete
	case feature.StepReview:
		return s.store.Len() > 0 && s.store.countOf(models.StatusReadyForReview) == 0
	}
	return false
}

func (s *Session) setupCompleteLocked() bool {
	for _, f := range s.feat.RequiredSetup {
		if s.setup[f] == "" {
			return false
		}
	}
	return true
}

// SetStep moves to step n if it is accessible; otherwise it is a no-op.
// Callers are expected to consult CanAccess before offering navigation.
func (s *Session) SetStep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canAccessLocked(n) {
		s.step = n
	}
}

// Advance moves forward one step, clamped to the step count.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.step + 1
	if n > len(s.feat.Steps) {
		n = len(s.feat.Steps)
	}
	if s.canAccessLocked(n) {
		s.step = n
	}
}

// Retreat moves back one step, clamped to 1.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.step - 1
	if n < 1 {
		n = 1
	}
	if s.canAccessLocked(n) {
		s.step = n
	}
}

// SetSetupField records one setup value.
func (s *Session) SetSetupField(key, value string) {
	s.mu.Lock()
	s.setup[key] = value
	s.mu.Unlock()
}

// SetupFields returns a copy of the setup values.
func (s *Session) SetupFields() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.setup))
	for k, v := range s.setup {
		out[k] = v
	}
	return out
}

// AddInput appends a record. The key is case-normalized; duplicates are
// rejected, never silently merged. Use ReplaceInput for deliberate
// overwrite.
func (s *Session) AddInput(rec models.InputRecord) error {
	rec.Key = models.NormalizeKey(rec.Key)
	if rec.Key == "" {
		return ErrEmptyKey
	}
	if rec.Content == "" {
		return ErrEmptyContent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inputIdx[rec.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Key)
	}
	s.inputIdx[rec.Key] = len(s.inputs)
	s.inputs = append(s.inputs, rec)
	return nil
}

// ReplaceInput overwrites the record with the same key in place, or
// appends when absent.
func (s *Session) ReplaceInput(rec models.InputRecord) error {
	rec.Key = models.NormalizeKey(rec.Key)
	if rec.Key == "" {
		return ErrEmptyKey
	}
	if rec.Content == "" {
		return ErrEmptyContent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.inputIdx[rec.Key]; ok {
		s.inputs[i] = rec
		return nil
	}
	s.inputIdx[rec.Key] = len(s.inputs)
	s.inputs = append(s.inputs, rec)
	return nil
}

// RemoveInput deletes a record by key. Unknown keys are a no-op.
func (s *Session) RemoveInput(key string) {
	key = models.NormalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.inputIdx[key]
	if !ok {
		return
	}
	s.inputs = append(s.inputs[:i], s.inputs[i+1:]...)
	delete(s.inputIdx, key)
	for k, idx := range s.inputIdx {
		if idx > i {
			s.inputIdx[k] = idx - 1
		}
	}
}

// Inputs returns a copy of the input records in insertion order.
func (s *Session) Inputs() []models.InputRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.InputRecord, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// LoadInputs restores persisted records into an empty input set.
func (s *Session) LoadInputs(recs []models.InputRecord) error {
	for _, r := range recs {
		if err := s.AddInput(r); err != nil {
			return fmt.Errorf("restore input %q: %w", r.Key, err)
		}
	}
	return nil
}

// Job returns a snapshot of the current batch job, or nil before any
// submission.
func (s *Session) Job() *models.BatchJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return nil
	}
	snap := *s.job
	if s.job.Progress != nil {
		p := *s.job.Progress
		snap.Progress = &p
	}
	return &snap
}

// Reset discards the entire session (inputs, job, results), cancels any
// polling, and returns to step 1.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.poll != nil {
		s.poll.Cancel()
		s.poll = nil
	}
	s.setup = make(map[string]string)
	s.inputs = nil
	s.inputIdx = make(map[string]int)
	s.job = nil
	s.step = 1
	s.mu.Unlock()

	s.store.clear()
	s.logger.Info("session reset", "session_id", s.ID)
}

// Close tears the session down, cancelling any in-flight polling. The
// session must not be used afterwards.
func (s *Session) Close() {
	s.CancelPolling()
}

// CancelPolling stops the current poll loop, if any. Safe to call at any
// time; the loop discards results from a tick already in flight.
func (s *Session) CancelPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll != nil {
		s.poll.Cancel()
		s.poll = nil
	}
}

// Resume rehydrates results for a previously submitted job after a session
// reload. It performs one explicit status re-check; polling is never
// resumed automatically for a possibly-stale job id.
func (s *Session) Resume(ctx context.Context, jobID string) error {
	st, err := s.backend.JobStatus(ctx, jobID)
	if err != nil {
		return fmt.Errorf("re-check job %s: %w", jobID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job := &models.BatchJob{ID: jobID, Status: st.Status, Mode: models.ModeAsynchronous}
	if st.Progress != nil {
		p := *st.Progress
		job.Progress = &p
	}
	if st.Status == models.JobError {
		job.Err = st.Error
	}
	s.job = job

	if st.Status == models.JobComplete {
		s.store.Hydrate(resultsFromGenerated(st.Results))
		if n := s.feat.StepIndex(feature.StepReview); n != 0 {
			s.step = n
		}
	}
	return nil
}

// notifyEvent delivers an event to the observer, outside the lock.
func (s *Session) notifyEvent(ev Event) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// syncItem is the store's remote-sync hook: it persists a review action
// against the current job before the store commits it locally.
func (s *Session) syncItem(ctx context.Context, key, content string, status models.ReviewStatus) error {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job == nil || job.ID == "" {
		return ErrNoJob
	}
	_, err := s.backend.UpdateItem(ctx, job.ID, key, content, status)
	return err
}

// resultsFromGenerated converts wire results into review items. Results
// without a status are fresh generations and start ready for review;
// re-fetched results keep the review state the backend persisted for
// them, so an approval is not lost across a reload.
func resultsFromGenerated(results []client.GeneratedItem) []models.ResultItem {
	items := make([]models.ResultItem, 0, len(results))
	now := time.Now()
	for _, r := range results {
		status := r.Status
		if status == "" {
			status = models.StatusReadyForReview
		}
		items = append(items, models.ResultItem{
			Key:       models.NormalizeKey(r.Key),
			Name:      r.Name,
			Fields:    r.Fields,
			Content:   r.Content,
			Generated: r.Content,
			Status:    status,
			WordCount: models.CountWords(r.Content),
			UpdatedAt: now,
		})
	}
	return items
}
