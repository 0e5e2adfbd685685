// Package export writes tracked jobs in spreadsheet-friendly formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/runnerr0/jobtrack/internal/storage"
)

// Columns is the CSV header, in order.
var Columns = []string{
	"job_key",
	"company",
	"title",
	"location",
	"status",
	"source",
	"original_url",
	"canonical_url",
	"notes",
	"tags",
	"created_at",
	"updated_at",
	"applied_at",
	"last_seen_at",
}

const (
	timeFormat   = time.RFC3339
	tagSeparator = ";"
)

// WriteCSV writes a header row and one row per job. Fields containing a
// comma, quote or line break are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, jobs []storage.Job) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, j := range jobs {
		if err := cw.Write(record(j)); err != nil {
			return fmt.Errorf("write %s: %w", j.JobKey, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func record(j storage.Job) []string {
	return []string{
		j.JobKey,
		j.Company,
		j.Title,
		j.Location,
		string(j.Status),
		j.Source,
		j.OriginalURL,
		j.CanonicalURL,
		j.Notes,
		strings.Join(j.Tags, tagSeparator),
		formatTime(j.CreatedAt),
		formatTime(j.UpdatedAt),
		formatOptionalTime(j.AppliedAt),
		formatOptionalTime(j.LastSeenAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
