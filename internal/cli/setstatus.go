package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/jobtrack/internal/storage"
)

// Execute implements the go-flags Commander interface for SetStatusCommand.
func (c *SetStatusCommand) Execute(args []string) error {
	if c.Key == "" {
		return fmt.Errorf("--key is required for set-status command")
	}
	if c.Status == "" && !c.ClearApplied {
		return fmt.Errorf("set-status needs --status, --clear-applied or both")
	}
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession applies the change against a provided session (used by tests).
func (c *SetStatusCommand) executeWithSession(sess *session) error {
	ctx := context.Background()

	var (
		job *storage.Job
		err error
	)
	if c.Status != "" {
		if job, err = sess.svc.SetStatus(ctx, c.Key, c.Status); err != nil {
			return err
		}
	}
	if c.ClearApplied {
		if job, err = sess.svc.ClearApplied(ctx, c.Key); err != nil {
			return err
		}
	}

	if c.globals.JSON {
		return printJSON(job)
	}

	fmt.Printf("Updated %s (%s)\n", job.JobKey, job.Status)
	printJobSummary(job)
	return nil
}
