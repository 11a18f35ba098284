package jobs

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id              TEXT PRIMARY KEY,
    locator         TEXT NOT NULL,
    profiles_json   TEXT NOT NULL,
    output_dir      TEXT NOT NULL,
    title           TEXT,
    total_steps     INTEGER NOT NULL,
    completed_steps INTEGER NOT NULL DEFAULT 0,
    phase           TEXT,
    log_json        TEXT NOT NULL DEFAULT '[]',
    status          TEXT NOT NULL,
    error_message   TEXT,
    archive_path    TEXT,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs (status, created_at);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
