package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the persistence contract for tracked jobs and settings. Absence is
// reported through the bool results, never as an error.
type Store interface {
	Get(ctx context.Context, jobKey string) (*Job, bool, error)
	FindByCanonicalURL(ctx context.Context, canonicalURL string) (*Job, bool, error)
	Upsert(ctx context.Context, job *Job) (*Job, error)
	Delete(ctx context.Context, jobKey string) (bool, error)
	List(ctx context.Context, filter JobFilter) ([]Job, error)
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings *Settings) error
	GetStats(ctx context.Context) (*Stats, error)
	PurgeAll(ctx context.Context) error
	Close() error
}

// timeLayout is how timestamps are written to SQLite: UTC, millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const jobColumns = `job_key, canonical_url, original_url, source, company, title, location,
	status, notes, tags, created_at, updated_at, applied_at, last_seen_at`

const (
	settingTheme        = "theme"
	settingStatusColors = "status_colors"
)

// SQLiteStore implements Store on a migrated SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool
	audit  bool
	now    func() time.Time

	getJob          *sql.Stmt
	findByCanonical *sql.Stmt
	deleteJob       *sql.Stmt
	getSetting      *sql.Stmt
	insertAudit     *sql.Stmt
}

// NewSQLiteStore wraps an already-opened and migrated database. Closing the
// store leaves db open.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// OpenSQLite opens (creating if needed) the database file at path, migrates
// it and returns a store that closes the database on Close.
func OpenSQLite(path, journalMode string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	runner, err := NewMigrationRunner(db).WithJournalMode(journalMode)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// SetAuditLog turns recording of mutations into audit_log on or off.
func (s *SQLiteStore) SetAuditLog(enabled bool) {
	s.audit = enabled
}

// DB exposes the underlying handle for diagnostics.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getJob, err = s.db.Prepare(`SELECT ` + jobColumns + ` FROM jobs WHERE job_key = ?`)
	if err != nil {
		return err
	}

	s.findByCanonical, err = s.db.Prepare(`SELECT ` + jobColumns + ` FROM jobs WHERE canonical_url = ? LIMIT 2`)
	if err != nil {
		return err
	}

	s.deleteJob, err = s.db.Prepare(`DELETE FROM jobs WHERE job_key = ?`)
	if err != nil {
		return err
	}

	s.getSetting, err = s.db.Prepare(`SELECT value FROM settings WHERE key = ?`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Prepare(`INSERT INTO audit_log (action, job_key, detail, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j                     Job
		status, tags          string
		createdAt, updatedAt  string
		appliedAt, lastSeenAt sql.NullString
	)

	if err := row.Scan(
		&j.JobKey, &j.CanonicalURL, &j.OriginalURL, &j.Source, &j.Company, &j.Title, &j.Location,
		&status, &j.Notes, &tags, &createdAt, &updatedAt, &appliedAt, &lastSeenAt,
	); err != nil {
		return nil, err
	}

	j.Status = Status(status)
	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", j.JobKey, err)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	var err error
	if j.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at for %s: %w", j.JobKey, err)
	}
	if j.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at for %s: %w", j.JobKey, err)
	}
	j.AppliedAt = parseNullTimestamp(appliedAt)
	j.LastSeenAt = parseNullTimestamp(lastSeenAt)

	return &j, nil
}

// Get returns the job stored under jobKey.
func (s *SQLiteStore) Get(ctx context.Context, jobKey string) (*Job, bool, error) {
	j, err := scanJob(s.getJob.QueryRowContext(ctx, jobKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get job %s: %w", jobKey, err)
	}
	return j, true, nil
}

// FindByCanonicalURL returns the job whose canonical URL equals
// canonicalURL. A second match yields ErrDuplicateCanonicalURL.
func (s *SQLiteStore) FindByCanonicalURL(ctx context.Context, canonicalURL string) (*Job, bool, error) {
	rows, err := s.findByCanonical.QueryContext(ctx, canonicalURL)
	if err != nil {
		return nil, false, fmt.Errorf("find by canonical url: %w", err)
	}
	defer rows.Close()

	var found []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan job: %w", err)
		}
		found = append(found, j)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	switch len(found) {
	case 0:
		return nil, false, nil
	case 1:
		return found[0], true, nil
	}
	return nil, false, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateCanonicalURL, canonicalURL, found[0].JobKey, found[1].JobKey)
}

// Upsert inserts job or replaces the stored record with the same key, then
// returns what was written.
func (s *SQLiteStore) Upsert(ctx context.Context, job *Job) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := scanJob(tx.StmtContext(ctx, s.getJob).QueryRowContext(ctx, job.JobKey))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("load job %s: %w", job.JobKey, err)
	}

	merged, err := mergeForUpsert(existing, job, s.now())
	if err != nil {
		return nil, err
	}

	tags, err := json.Marshal(merged.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_key) DO UPDATE SET
			canonical_url = excluded.canonical_url,
			original_url  = excluded.original_url,
			source        = excluded.source,
			company       = excluded.company,
			title         = excluded.title,
			location      = excluded.location,
			status        = excluded.status,
			notes         = excluded.notes,
			tags          = excluded.tags,
			updated_at    = excluded.updated_at,
			applied_at    = excluded.applied_at,
			last_seen_at  = excluded.last_seen_at,
			search_text   = excluded.search_text`,
		merged.JobKey, merged.CanonicalURL, merged.OriginalURL, merged.Source,
		merged.Company, merged.Title, merged.Location, string(merged.Status),
		merged.Notes, string(tags), formatTime(merged.CreatedAt), formatTime(merged.UpdatedAt),
		formatNullTime(merged.AppliedAt), formatNullTime(merged.LastSeenAt),
		searchText(merged),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert job %s: %w", merged.JobKey, err)
	}

	action := "create"
	if existing != nil {
		action = "update"
	}
	if err := s.recordAudit(ctx, tx, action, merged.JobKey, "status="+string(merged.Status)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return merged, nil
}

// Delete removes the job stored under jobKey and reports whether it existed.
func (s *SQLiteStore) Delete(ctx context.Context, jobKey string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.StmtContext(ctx, s.deleteJob).ExecContext(ctx, jobKey)
	if err != nil {
		return false, fmt.Errorf("delete job %s: %w", jobKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := s.recordAudit(ctx, tx, "delete", jobKey, ""); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return true, nil
}

// List returns the jobs matching filter.
func (s *SQLiteStore) List(ctx context.Context, f JobFilter) ([]Job, error) {
	var clauses []string
	var args []interface{}

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, f.Source)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	orderBy, err := orderClause(f.Sort, f.Desc)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// orderClause builds ORDER BY from a whitelisted sort field. job_key breaks
// ties so pagination is stable.
func orderClause(field SortField, desc bool) (string, error) {
	if field == "" {
		field = SortUpdatedAt
	}

	var expr string
	switch field {
	case SortUpdatedAt:
		expr = "updated_at"
	case SortCreatedAt:
		expr = "created_at"
	case SortCompany:
		expr = "company COLLATE NOCASE"
	case SortTitle:
		expr = "title COLLATE NOCASE"
	case SortStatus:
		var b strings.Builder
		b.WriteString("CASE status")
		for i, st := range Statuses {
			fmt.Fprintf(&b, " WHEN '%s' THEN %d", st, i)
		}
		b.WriteString(" END")
		expr = b.String()
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidSort, field)
	}

	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return " ORDER BY " + expr + dir + ", job_key ASC", nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetSettings returns the stored settings, falling back to DefaultSettings
// for anything never saved.
func (s *SQLiteStore) GetSettings(ctx context.Context) (*Settings, error) {
	settings := DefaultSettings()

	var theme string
	err := s.getSetting.QueryRowContext(ctx, settingTheme).Scan(&theme)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get theme: %w", err)
	default:
		if t, perr := ParseTheme(theme); perr == nil {
			settings.Theme = t
		}
	}

	var colors string
	err = s.getSetting.QueryRowContext(ctx, settingStatusColors).Scan(&colors)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get status colors: %w", err)
	default:
		if err := json.Unmarshal([]byte(colors), &settings.StatusColors); err != nil {
			return nil, fmt.Errorf("decode status colors: %w", err)
		}
	}

	return settings, nil
}

// SaveSettings replaces the stored settings.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	colors, err := json.Marshal(settings.StatusColors)
	if err != nil {
		return fmt.Errorf("encode status colors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsertSetting = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, upsertSetting, settingTheme, string(settings.Theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertSetting, settingStatusColors, string(colors)); err != nil {
		return fmt.Errorf("save status colors: %w", err)
	}
	if err := s.recordAudit(ctx, tx, "settings", "", "theme="+string(settings.Theme)); err != nil {
		return err
	}

	return tx.Commit()
}

func validateSettings(settings *Settings) error {
	if settings == nil {
		return errors.New("settings are required")
	}
	if _, err := ParseTheme(string(settings.Theme)); err != nil {
		return err
	}
	for st := range settings.StatusColors {
		if !st.Valid() {
			_, err := ParseStatus(string(st))
			return err
		}
	}
	return nil
}

// GetStats returns totals per status and per source.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[Status]int64, len(Statuses))}
	for _, st := range Statuses {
		stats.ByStatus[st] = 0
	}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&stats.TotalJobs)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	if stats.TotalJobs == 0 {
		return stats, nil
	}

	var oldest, newest string
	err = s.db.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(updated_at) FROM jobs").Scan(&oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("job time range: %w", err)
	}
	stats.OldestCreated, _ = parseTimestamp(oldest)
	stats.NewestUpdated, _ = parseTimestamp(newest)

	statusRows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var st string
		var n int64
		if err := statusRows.Scan(&st, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[Status(st)] = n
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	sourceRows, err := s.db.QueryContext(ctx,
		"SELECT source, COUNT(*) AS cnt FROM jobs GROUP BY source ORDER BY cnt DESC, source ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer sourceRows.Close()

	for sourceRows.Next() {
		var sc SourceCount
		if err := sourceRows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		stats.BySource = append(stats.BySource, sc)
	}

	return stats, sourceRows.Err()
}

// PurgeAll deletes every job, setting and audit row, then records the purge.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM jobs",
		"DELETE FROM settings",
		"DELETE FROM audit_log",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	if err := s.recordAudit(ctx, tx, "purge", "", ""); err != nil {
		return err
	}

	return tx.Commit()
}

// AuditLog returns the newest audit entries first. limit <= 0 means all.
func (s *SQLiteStore) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, job_key, detail, ts FROM audit_log ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Action, &e.JobKey, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Timestamp, _ = parseTimestamp(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// recordAudit writes one audit row when auditing is on. tx may be nil.
func (s *SQLiteStore) recordAudit(ctx context.Context, tx *sql.Tx, action, jobKey, detail string) error {
	if !s.audit {
		return nil
	}
	stmt := s.insertAudit
	if tx != nil {
		stmt = tx.StmtContext(ctx, s.insertAudit)
	}
	if _, err := stmt.ExecContext(ctx, action, jobKey, detail, formatTime(s.now())); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// Close releases prepared statements, and the database when the store
// opened it.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.getJob, s.findByCanonical, s.deleteJob, s.getSetting, s.insertAudit,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

func parseNullTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := parseTimestamp(ns.String)
	if err != nil {
		return nil
	}
	return &t
}
