package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/jobtrack/internal/canonical"
	"github.com/runnerr0/jobtrack/internal/storage"
)

// checkJSON is the JSON output structure for the check command.
type checkJSON struct {
	Tracked      bool         `json:"tracked"`
	CanonicalURL string       `json:"canonical_url"`
	Job          *storage.Job `json:"job,omitempty"`
}

// Execute implements the go-flags Commander interface for CheckCommand.
func (c *CheckCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for check command")
	}
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession runs the check against a provided session (used by tests).
func (c *CheckCommand) executeWithSession(sess *session) error {
	job, found, err := sess.svc.Check(context.Background(), c.URL)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		return printJSON(checkJSON{
			Tracked:      found,
			CanonicalURL: canonical.Canonicalize(c.URL),
			Job:          job,
		})
	}

	if !found {
		fmt.Println("Not tracked.")
		return nil
	}

	fmt.Printf("Already tracked as %s (%s)\n", job.JobKey, job.Status)
	printJobSummary(job)
	fmt.Printf("  First seen: %s\n", job.CreatedAt.Local().Format(displayTime))
	return nil
}
