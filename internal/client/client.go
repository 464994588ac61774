// Package client provides a typed HTTP client for the batch generation
// backend. All four backend calls (submit, status, item update, export)
// live here; response decoding normalizes the two possible submission
// shapes into a tagged outcome so callers must handle both branches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"gradeflow/internal/metrics"
	"gradeflow/internal/models"
)

// Client talks to the generation backend for one feature.
type Client struct {
	endpoint   string
	slug       string
	httpClient *http.Client
}

// New creates a backend client for the given feature slug.
// If endpoint is empty, uses GRADEFLOW_SERVER_URL or a localhost default.
// Timeout is configurable via GRADEFLOW_CLIENT_TIMEOUT (default 10m, long
// enough for synchronous generation of a full batch).
func New(endpoint, slug string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("GRADEFLOW_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8580"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("GRADEFLOW_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		slug:     slug,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SubmitItem is one input record on the wire.
type SubmitItem struct {
	Key     string `json:"key"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// SubmitRequest is the payload for a batch submission.
type SubmitRequest struct {
	Mode  string            `json:"mode"`
	Setup map[string]string `json:"setup"`
	Items []SubmitItem      `json:"items"`
}

// GeneratedItem is one generated result on the wire. Status is the item's
// persisted review state; the backend omits it for freshly generated
// results and includes it when an existing job's results are re-fetched,
// so review actions survive a session reload.
type GeneratedItem struct {
	Key     string              `json:"key"`
	Name    string              `json:"name,omitempty"`
	Fields  map[string]string   `json:"fields,omitempty"`
	Content string              `json:"content"`
	Status  models.ReviewStatus `json:"status,omitempty"`
}

// JobHandle identifies an asynchronous job accepted by the backend.
type JobHandle struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// SubmitOutcome is the normalized submission response: either an inline
// result set (synchronous) or a job handle (asynchronous). Exactly one
// branch is populated. JobID is set in both cases; the backend assigns an
// id even to synchronously served batches so item updates and exports can
// reference them.
type SubmitOutcome struct {
	JobID   string
	Results []GeneratedItem
	Handle  *JobHandle
}

// Synchronous reports whether the backend served the batch inline.
func (o *SubmitOutcome) Synchronous() bool {
	return o.Handle == nil
}

// StatusResponse is the polled state of an asynchronous job. Results is
// present only when Status is complete.
type StatusResponse struct {
	Status   models.JobStatus `json:"status"`
	Progress *models.Progress `json:"progress,omitempty"`
	Results  []GeneratedItem  `json:"results,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ItemUpdate is the backend's acknowledgement of a review action.
type ItemUpdate struct {
	Key       string    `json:"item_key"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// submitResponse is the raw wire shape of a submission response,
// discriminated by which fields are present.
type submitResponse struct {
	JobID            string          `json:"job_id,omitempty"`
	EstimatedSeconds int             `json:"estimated_seconds,omitempty"`
	Results          []GeneratedItem `json:"results,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// errorEnvelope is the application error shape used by all endpoints.
type errorEnvelope struct {
	Error string `json:"error"`
}

// Submit posts a batch to the backend and decodes the response into a
// tagged outcome.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitOutcome, error) {
	var resp submitResponse
	if err := c.do(ctx, metrics.OpSubmit, http.MethodPost, c.batchPath(""), req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("backend rejected batch: %s", resp.Error)
	}

	switch {
	case resp.Results != nil:
		return &SubmitOutcome{JobID: resp.JobID, Results: resp.Results}, nil
	case resp.JobID != "":
		return &SubmitOutcome{
			JobID:  resp.JobID,
			Handle: &JobHandle{JobID: resp.JobID, EstimatedSeconds: resp.EstimatedSeconds},
		}, nil
	default:
		return nil, fmt.Errorf("malformed submission response: neither results nor job_id present")
	}
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, metrics.OpJobStatus, http.MethodGet, c.batchPath(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateItem persists a review action for one result item.
func (c *Client) UpdateItem(ctx context.Context, jobID, key, content string, status models.ReviewStatus) (*ItemUpdate, error) {
	payload := struct {
		Content string `json:"content"`
		Status  string `json:"status"`
	}{Content: content, Status: string(status)}

	path := c.batchPath(jobID) + "/items/" + url.PathEscape(key)
	var resp ItemUpdate
	if err := c.do(ctx, metrics.OpUpdateItem, http.MethodPut, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export fetches the backend-rendered export artifact for a job.
func (c *Client) Export(ctx context.Context, jobID, format string, approvedOnly bool) (artifact string, err error) {
	path := c.batchPath(jobID) + "/export?format=" + url.QueryEscape(format) +
		"&approved_only=" + strconv.FormatBool(approvedOnly)

	start := time.Now()
	defer func() { metrics.Record(metrics.OpExport, time.Since(start), err != nil) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, body)
	}
	return string(body), nil
}

func (c *Client) batchPath(jobID string) string {
	p := "/api/" + c.slug + "/batches"
	if jobID != "" {
		p += "/" + url.PathEscape(jobID)
	}
	return p
}

// do executes one JSON request/response exchange, recording its timing
// under op.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() { metrics.Record(op, time.Since(start), err != nil) }()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// apiError surfaces the backend's error message when present, falling back
// to the raw status. Transport and application errors are treated uniformly
// by callers, so a single error type suffices.
func apiError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return fmt.Errorf("backend error: %s", env.Error)
	}
	return fmt.Errorf("server error: %s", http.StatusText(status))
}
