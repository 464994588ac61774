package cli

import (
	"context"
	"fmt"

	"gradeflow/internal/client"
	"gradeflow/internal/db"
	"gradeflow/internal/engine"
	"gradeflow/internal/feature"
)

// loadSession reconstructs the working session from its persisted record:
// the one named by --session, or the most recently updated one. If the
// record points at a prior job, its status is re-checked once so completed
// results come back for review.
func loadSession(ctx context.Context) (*engine.Session, error) {
	var rec *db.SessionRecord
	var err error
	if sessionID != "" {
		rec, err = dbClient.GetSession(ctx, sessionID)
	} else {
		rec, err = dbClient.LatestSession(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load session (create one with 'gradeflow new'): %w", err)
	}

	id, err := rec.SessionID()
	if err != nil {
		return nil, err
	}

	feat, err := feature.ByName(rec.Feature)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	backend := client.New(cfg.ServerURL, feat.Slug)
	sess := engine.NewSession(id, feat, backend, logger)
	sess.SetPollInterval(cfg.PollInterval)

	for k, v := range rec.SetupFields {
		sess.SetSetupField(k, v)
	}
	if err := sess.LoadInputs(rec.InputItems); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	if rec.LastJobID != nil && *rec.LastJobID != "" {
		if err := sess.Resume(ctx, *rec.LastJobID); err != nil {
			// The job may have been evicted server-side; the session is
			// still usable for a fresh submission.
			logger.Warn("could not re-check prior job", "session_id", id,
				"job_id", *rec.LastJobID, "error", err)
			fmt.Printf("Note: prior job %s could not be re-checked: %v\n", *rec.LastJobID, err)
		}
	}

	return sess, nil
}

// missingSetup lists required setup fields without a value yet.
func missingSetup(sess *engine.Session) []string {
	setup := sess.SetupFields()
	var missing []string
	for _, f := range sess.Feature().RequiredSetup {
		if setup[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// persistSession writes the session's durable facts back to the store.
// Job progress and results are never persisted; only the job id pointer.
func persistSession(ctx context.Context, sess *engine.Session) error {
	var jobID *string
	if job := sess.Job(); job != nil && job.ID != "" {
		id := job.ID
		jobID = &id
	}
	if err := dbClient.SaveSession(ctx, sess.ID, sess.SetupFields(), sess.Inputs(), jobID); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
