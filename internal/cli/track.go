package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for TrackCommand.
func (c *TrackCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for track command")
	}
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession runs the track logic against a provided session (used by tests).
func (c *TrackCommand) executeWithSession(sess *session) error {
	job, err := sess.svc.Track(context.Background(), tracker.TrackRequest{
		URL:       c.URL,
		Title:     c.Title,
		Company:   c.Company,
		Location:  c.Location,
		PageTitle: c.PageTitle,
		Status:    c.Status,
		Notes:     c.Notes,
		Tags:      c.Tags,
	})
	if err != nil {
		return err
	}

	if c.globals.JSON {
		return printJSON(job)
	}

	fmt.Printf("Tracked %s (%s)\n", job.JobKey, job.Status)
	printJobSummary(job)
	return nil
}

// printJobSummary prints the fields shared by track, check and set-status.
func printJobSummary(job *storage.Job) {
	fmt.Printf("  Title:     %s\n", orDash(job.Title))
	fmt.Printf("  Company:   %s\n", orDash(job.Company))
	if job.Location != "" {
		fmt.Printf("  Location:  %s\n", job.Location)
	}
	fmt.Printf("  Source:    %s\n", job.Source)
	fmt.Printf("  URL:       %s\n", job.CanonicalURL)
	if len(job.Tags) > 0 {
		fmt.Printf("  Tags:      %s\n", strings.Join(job.Tags, ", "))
	}
	if job.AppliedAt != nil {
		fmt.Printf("  Applied:   %s\n", job.AppliedAt.Local().Format(displayTime))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(displayTime)
}
