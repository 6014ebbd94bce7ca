package database

// migration holds a single schema migration with its target version and SQL
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of SQLite schema migrations.
// Timestamps are stored as fixed-width UTC text (see sqliteTimeLayout) so
// that lexical comparison in SQL matches chronological order
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'ongoing' CHECK(status IN ('ongoing', 'success', 'failure')),
	deadline     TEXT NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_status_deadline ON tasks(status, deadline);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
