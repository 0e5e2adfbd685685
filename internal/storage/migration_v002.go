package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// searchSep joins the searchable fields in search_text. A query containing it
// is never expected.
const searchSep = "\x1f"

// searchText is the lower-cased haystack List matches a free-text query
// against. SQLite's LIKE folds ASCII only, so folding happens here.
func searchText(j *Job) string {
	return strings.ToLower(strings.Join([]string{j.Company, j.Title, j.Location, j.Notes}, searchSep))
}

// migrateV002 adds jobs.search_text and fills it for existing rows.
func migrateV002(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE jobs ADD COLUMN search_text TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add search_text: %w", err)
	}

	rows, err := tx.Query(`SELECT job_key, company, title, location, notes FROM jobs`)
	if err != nil {
		return fmt.Errorf("read jobs: %w", err)
	}
	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.JobKey, &j.Company, &j.Title, &j.Location, &j.Notes); err != nil {
			rows.Close()
			return fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range jobs {
		if _, err := tx.Exec(`UPDATE jobs SET search_text = ? WHERE job_key = ?`, searchText(&jobs[i]), jobs[i].JobKey); err != nil {
			return fmt.Errorf("backfill %s: %w", jobs[i].JobKey, err)
		}
	}
	return nil
}
