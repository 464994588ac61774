package db

// SchemaSQL contains the database schema initialization SQL.
// Session records hold durable facts only: in-flight job progress and
// polling state are never persisted, and last_job_id is just a pointer
// whose status must be re-checked before use.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS workflow_session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS feature ON workflow_session TYPE string;
    DEFINE FIELD IF NOT EXISTS setup_fields ON workflow_session FLEXIBLE TYPE object DEFAULT {};
    DEFINE FIELD IF NOT EXISTS input_items ON workflow_session FLEXIBLE TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS last_job_id ON workflow_session TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON workflow_session TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON workflow_session TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS session_updated ON workflow_session FIELDS updated;
    DEFINE INDEX IF NOT EXISTS session_feature ON workflow_session FIELDS feature;
`
