package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/jobtrack/internal/tracker"
)

// stdin is read for the purge confirmation. Tests replace it.
var stdin io.Reader = os.Stdin

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if err := c.confirm(); err != nil {
		return err
	}
	return withSession(c.globals, c.executeWithSession)
}

// confirm asks for the word PURGE unless --force is set.
func (c *PurgeCommand) confirm() error {
	if c.Force {
		return nil
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL jobtrack data.")
	fmt.Println("  - All tracked jobs")
	fmt.Println("  - Saved settings")
	fmt.Println("  - The audit log")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	input := strings.TrimSpace(scanner.Text())
	if input != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithSession purges the store of a provided session (used by tests).
func (c *PurgeCommand) executeWithSession(sess *session) error {
	if err := sess.store.PurgeAll(context.Background()); err != nil {
		return tracker.StoreError("purge failed", err)
	}
	sess.logger.Warn("all data purged")

	if c.globals.JSON {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Println("Purged all data. jobtrack is empty.")
	return nil
}
