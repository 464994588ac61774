package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"gradeflow/internal/models"
)

// ErrSessionNotFound indicates the requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is one persisted workflow session. It carries durable
// facts only; job progress and polling state are never written here.
type SessionRecord struct {
	ID          surrealmodels.RecordID `json:"id"`
	Feature     string                 `json:"feature"`
	SetupFields map[string]string      `json:"setup_fields"`
	InputItems  []models.InputRecord   `json:"input_items"`
	LastJobID   *string                `json:"last_job_id,omitempty"`
	Created     time.Time              `json:"created"`
	Updated     time.Time              `json:"updated"`
}

// SessionID returns the record's plain string id.
func (r *SessionRecord) SessionID() (string, error) {
	id, ok := r.ID.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected session id type %T", r.ID.ID)
	}
	return id, nil
}

// CreateSession persists a fresh session for a feature.
func (c *Client) CreateSession(ctx context.Context, id, featureName string) (*SessionRecord, error) {
	results, err := surrealdb.Query[[]SessionRecord](ctx, c.db, `
		CREATE type::record("workflow_session", $id) SET
			feature = $feature,
			setup_fields = {},
			input_items = []
	`, map[string]any{"id": id, "feature": featureName})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create session: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetSession retrieves a session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	results, err := surrealdb.Query[[]SessionRecord](ctx, c.db, `
		SELECT * FROM type::record("workflow_session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return &(*results)[0].Result[0], nil
}

// LatestSession returns the most recently updated session, which the CLI
// treats as current.
func (c *Client) LatestSession(ctx context.Context) (*SessionRecord, error) {
	results, err := surrealdb.Query[[]SessionRecord](ctx, c.db, `
		SELECT * FROM workflow_session ORDER BY updated DESC LIMIT 1
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrSessionNotFound
	}
	return &(*results)[0].Result[0], nil
}

// ListSessions returns all sessions, most recently updated first.
func (c *Client) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	results, err := surrealdb.Query[[]SessionRecord](ctx, c.db, `
		SELECT * FROM workflow_session ORDER BY updated DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []SessionRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// SaveSession overwrites a session's durable facts.
func (c *Client) SaveSession(ctx context.Context, id string, setup map[string]string, inputs []models.InputRecord, lastJobID *string) error {
	if setup == nil {
		setup = map[string]string{}
	}
	if inputs == nil {
		inputs = []models.InputRecord{}
	}
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("workflow_session", $id) SET
			setup_fields = $setup,
			input_items = $items,
			last_job_id = $job,
			updated = time::now()
	`, map[string]any{"id": id, "setup": setup, "items": inputs, "job": lastJobID})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("workflow_session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
