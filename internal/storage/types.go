package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateCanonicalURL means two stored jobs share one canonical URL.
	// Keys are derived deterministically, so this is a data-integrity fault.
	ErrDuplicateCanonicalURL = errors.New("more than one job has this canonical URL")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidTheme          = errors.New("invalid theme")
	ErrInvalidSort           = errors.New("invalid sort field")
	ErrMissingJobKey         = errors.New("job key is required")
	ErrMissingURL            = errors.New("original URL is required")
)

// Status is the application stage of a tracked job.
type Status string

const (
	StatusInterested   Status = "interested"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusRejected     Status = "rejected"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusInterested,
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

func (s Status) rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w %q (want one of %s)", ErrInvalidStatus, s, joinStatuses())
	}
	return st, nil
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

// Job is one tracked posting, keyed by JobKey.
type Job struct {
	JobKey       string     `json:"job_key"`
	CanonicalURL string     `json:"canonical_url"`
	OriginalURL  string     `json:"original_url"`
	Source       string     `json:"source"`
	Company      string     `json:"company"`
	Title        string     `json:"title"`
	Location     string     `json:"location"`
	Status       Status     `json:"status"`
	Notes        string     `json:"notes"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AppliedAt    *time.Time `json:"applied_at,omitempty"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`

	// ClearAppliedAt asks Upsert to drop AppliedAt. It is never persisted.
	ClearAppliedAt bool `json:"-"`
}

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("%w %q (want light or dark)", ErrInvalidTheme, s)
}

// Settings is the singleton preferences record.
type Settings struct {
	Theme        Theme             `json:"theme"`
	StatusColors map[Status]string `json:"status_colors,omitempty"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() *Settings {
	return &Settings{Theme: ThemeLight, StatusColors: map[Status]string{}}
}

// SortField names a column List can order by.
type SortField string

const (
	SortUpdatedAt SortField = "updated_at"
	SortCreatedAt SortField = "created_at"
	SortCompany   SortField = "company"
	SortTitle     SortField = "title"
	SortStatus    SortField = "status"
)

// ParseSortField maps a user-supplied name to a SortField. Empty means
// SortUpdatedAt.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortUpdatedAt, nil
	case SortUpdatedAt, SortCreatedAt, SortCompany, SortTitle, SortStatus:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidSort, s)
}

// JobFilter defines filters and ordering for listing jobs.
type JobFilter struct {
	Status Status
	Source string
	Query  string // case-insensitive substring of company, title, location or notes
	Sort   SortField
	Desc   bool
	Limit  int // <= 0 means no limit
	Offset int
}

// Stats holds aggregate counts about tracked jobs.
type Stats struct {
	TotalJobs     int64
	ByStatus      map[Status]int64
	BySource      []SourceCount
	OldestCreated time.Time
	NewestUpdated time.Time
}

// SourceCount pairs a source tag with its job count.
type SourceCount struct {
	Source string
	Count  int64
}

// AuditEntry is one row of the SQLite audit log.
type AuditEntry struct {
	ID        int64
	Action    string
	JobKey    string
	Detail    string
	Timestamp time.Time
}
