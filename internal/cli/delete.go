package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/jobtrack/internal/apperr"
)

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	if c.Key == "" {
		return fmt.Errorf("--key is required for delete command")
	}
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession deletes against a provided session (used by tests).
func (c *DeleteCommand) executeWithSession(sess *session) error {
	deleted, err := sess.svc.Delete(context.Background(), c.Key)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		return printJSON(map[string]interface{}{
			"job_key": c.Key,
			"deleted": deleted,
		})
	}

	if !deleted {
		return apperr.NotFound("no job with key "+c.Key, nil)
	}
	fmt.Printf("Deleted %s\n", c.Key)
	return nil
}
