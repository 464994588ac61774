package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gradeflow/internal/client"
	"gradeflow/internal/models"
)

// StatusFetcher is the slice of the backend the poll loop needs.
type StatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (*client.StatusResponse, error)
}

// PollHooks receive the outcomes of poll ticks. Any hook may be nil.
// After a terminal hook (OnComplete or OnError) fires, no further hooks
// are invoked.
type PollHooks struct {
	OnProgress func(models.Progress)
	OnComplete func([]client.GeneratedItem)
	OnError    func(error)
}

// PollHandle controls one running poll loop. Cancellation is cooperative:
// after Cancel the loop schedules no further ticks and discards the
// response of a tick already in flight. Done closes when the loop has
// fully exited.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the loop. Idempotent.
func (h *PollHandle) Cancel() {
	h.cancel()
}

// Done returns a channel closed once the loop goroutine has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// StartPoll drives an asynchronous job to a terminal state by fetching its
// status at a fixed interval. The loop stops on the first terminal status
// and on the first tick-level transport failure: with no retry policy
// upstream, failing closed beats polling forever.
func StartPoll(fetch StatusFetcher, jobID string, interval time.Duration, hooks PollHooks, logger *slog.Logger) *PollHandle {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &PollHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("poll loop cancelled", "job_id", jobID)
				return
			case <-ticker.C:
			}

			st, err := fetch.JobStatus(ctx, jobID)
			if ctx.Err() != nil {
				// Cancelled while the fetch was in flight; discard.
				logger.Debug("poll loop cancelled mid-tick", "job_id", jobID)
				return
			}
			if err != nil {
				if hooks.OnError != nil {
					hooks.OnError(fmt.Errorf("poll job status: %w", err))
				}
				return
			}

			switch st.Status {
			case models.JobSubmitted:
				// Not picked up yet; keep waiting.
			case models.JobProcessing:
				if st.Progress != nil && hooks.OnProgress != nil {
					hooks.OnProgress(*st.Progress)
				}
			case models.JobComplete:
				if hooks.OnComplete != nil {
					hooks.OnComplete(st.Results)
				}
				return
			case models.JobError:
				if hooks.OnError != nil {
					msg := st.Error
					if msg == "" {
						msg = "generation failed"
					}
					hooks.OnError(errors.New(msg))
				}
				return
			default:
				if hooks.OnError != nil {
					hooks.OnError(fmt.Errorf("unexpected job status %q", st.Status))
				}
				return
			}
		}
	}()

	return h
}
