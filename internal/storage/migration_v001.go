package storage

import "database/sql"

// migrateV001 creates the jobs, settings and audit_log tables with their
// indexes and seeds the default theme.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_key       TEXT PRIMARY KEY,
			canonical_url TEXT NOT NULL,
			original_url  TEXT NOT NULL,
			source        TEXT NOT NULL DEFAULT 'manual',
			company       TEXT NOT NULL DEFAULT '',
			title         TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'interested'
				CHECK (status IN ('interested', 'applied', 'interviewing', 'offer', 'rejected')),
			notes         TEXT NOT NULL DEFAULT '',
			tags          TEXT NOT NULL DEFAULT '[]',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,
			applied_at    TEXT,
			last_seen_at  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			action  TEXT NOT NULL,
			job_key TEXT NOT NULL DEFAULT '',
			detail  TEXT NOT NULL DEFAULT '',
			ts      TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_jobs_canonical_url ON jobs(canonical_url)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status        ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_source        ON jobs(source)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_updated_at    ON jobs(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts       ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action   ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	_, err := tx.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, settingTheme, string(ThemeLight))
	return err
}
