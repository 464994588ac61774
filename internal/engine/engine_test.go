package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"gradeflow/internal/client"
	"gradeflow/internal/models"
)

// fakeBackend scripts the external batch API for tests.
type fakeBackend struct {
	mu          sync.Mutex
	submitFn    func(req client.SubmitRequest) (*client.SubmitOutcome, error)
	statusFn    func(jobID string) (*client.StatusResponse, error)
	updateErr   error
	statusCalls int
	updates     []updateCall
}

type updateCall struct {
	jobID   string
	key     string
	content string
	status  models.ReviewStatus
}

func (f *fakeBackend) Submit(_ context.Context, req client.SubmitRequest) (*client.SubmitOutcome, error) {
	return f.submitFn(req)
}

func (f *fakeBackend) JobStatus(_ context.Context, jobID string) (*client.StatusResponse, error) {
	f.mu.Lock()
	f.statusCalls++
	f.mu.Unlock()
	return f.statusFn(jobID)
}

func (f *fakeBackend) UpdateItem(_ context.Context, jobID, key, content string, status models.ReviewStatus) (*client.ItemUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, updateCall{jobID: jobID, key: key, content: content, status: status})
	return &client.ItemUpdate{Key: key, Status: string(status), UpdatedAt: time.Now()}, nil
}

func (f *fakeBackend) Export(_ context.Context, jobID, format string, approvedOnly bool) (string, error) {
	return "remote artifact", nil
}

func (f *fakeBackend) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeBackend) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]updateCall, len(f.updates))
	copy(out, f.updates)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncResults builds an inline-result submit function echoing the request
// items back as generated text.
func syncResults(jobID string) func(req client.SubmitRequest) (*client.SubmitOutcome, error) {
	return func(req client.SubmitRequest) (*client.SubmitOutcome, error) {
		results := make([]client.GeneratedItem, 0, len(req.Items))
		for _, it := range req.Items {
			results = append(results, client.GeneratedItem{
				Key:     it.Key,
				Name:    it.Name,
				Content: "Generated for " + it.Key,
			})
		}
		return &client.SubmitOutcome{JobID: jobID, Results: results}, nil
	}
}

// asyncHandle builds a job-handle submit function.
func asyncHandle(jobID string, estimated int) func(req client.SubmitRequest) (*client.SubmitOutcome, error) {
	return func(req client.SubmitRequest) (*client.SubmitOutcome, error) {
		return &client.SubmitOutcome{
			JobID:  jobID,
			Handle: &client.JobHandle{JobID: jobID, EstimatedSeconds: estimated},
		}, nil
	}
}

func addInputs(s *Session, keys ...string) {
	for _, k := range keys {
		if err := s.AddInput(models.InputRecord{Key: k, Content: "submission " + k}); err != nil {
			panic(err)
		}
	}
}

func completeSetup(s *Session) {
	for _, f := range s.Feature().RequiredSetup {
		s.SetSetupField(f, "test value")
	}
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
