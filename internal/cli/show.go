package cli

import (
	"context"
	"fmt"
	"strings"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.Key == "" {
		return fmt.Errorf("--key is required for show command")
	}
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession prints the job against a provided session (used by tests).
func (c *ShowCommand) executeWithSession(sess *session) error {
	job, err := sess.svc.Job(context.Background(), c.Key)
	if err != nil {
		return err
	}

	format := strings.ToLower(c.Format)
	if c.globals.JSON {
		format = "json"
	}

	switch format {
	case "url":
		fmt.Println(job.OriginalURL)
	case "canonical":
		fmt.Println(job.CanonicalURL)
	case "json":
		return printJSON(job)
	case "full", "":
		fmt.Println(job.JobKey)
		fmt.Printf("Title:      %s\n", orDash(job.Title))
		fmt.Printf("Company:    %s\n", orDash(job.Company))
		fmt.Printf("Location:   %s\n", orDash(job.Location))
		fmt.Printf("Status:     %s\n", job.Status)
		fmt.Printf("Source:     %s\n", job.Source)
		fmt.Printf("URL:        %s\n", job.OriginalURL)
		fmt.Printf("Canonical:  %s\n", job.CanonicalURL)
		fmt.Printf("Tags:       %s\n", orDash(strings.Join(job.Tags, ", ")))
		fmt.Printf("Created:    %s\n", job.CreatedAt.Local().Format(displayTime))
		fmt.Printf("Updated:    %s\n", job.UpdatedAt.Local().Format(displayTime))
		fmt.Printf("Applied:    %s\n", formatOptional(job.AppliedAt))
		fmt.Printf("Last seen:  %s\n", formatOptional(job.LastSeenAt))
		if job.Notes != "" {
			fmt.Println()
			fmt.Println("--- Notes ---")
			fmt.Println(job.Notes)
		}
	default:
		return fmt.Errorf("unknown --format %q (use full, url, canonical or json)", c.Format)
	}
	return nil
}
