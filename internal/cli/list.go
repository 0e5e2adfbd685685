package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

type jsonListOutput struct {
	Count int           `json:"count"`
	Jobs  []storage.Job `json:"jobs"`
}

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	return withSession(c.globals, func(sess *session) error {
		return c.executeWithSession(sess, args)
	})
}

// executeWithSession runs the listing against a provided session (used by
// tests). Positional args are joined into the query when --query is unset.
func (c *ListCommand) executeWithSession(sess *session, args []string) error {
	f, err := c.filter(args)
	if err != nil {
		return err
	}

	jobs, err := sess.store.List(context.Background(), f)
	if err != nil {
		return tracker.StoreError("list failed", err)
	}

	if c.globals != nil && c.globals.JSON {
		if jobs == nil {
			jobs = []storage.Job{}
		}
		return printJSON(jsonListOutput{Count: len(jobs), Jobs: jobs})
	}
	c.printHuman(jobs)
	return nil
}

func (c *ListCommand) filter(args []string) (storage.JobFilter, error) {
	f := storage.JobFilter{
		Source: strings.ToLower(c.Source),
		Query:  c.Query,
		Desc:   c.Desc,
		Limit:  c.Limit,
		Offset: c.Offset,
	}
	if f.Query == "" && len(args) > 0 {
		f.Query = strings.Join(args, " ")
	}

	if c.Status != "" {
		st, err := storage.ParseStatus(c.Status)
		if err != nil {
			return f, apperr.InvalidInput("invalid --status", err)
		}
		f.Status = st
	}

	sort, err := storage.ParseSortField(c.Sort)
	if err != nil {
		return f, apperr.InvalidInput("invalid --sort", err)
	}
	f.Sort = sort

	if c.Limit < 0 || c.Offset < 0 {
		return f, apperr.InvalidInput("--limit and --offset must not be negative", nil)
	}
	return f, nil
}

func (c *ListCommand) printHuman(jobs []storage.Job) {
	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return
	}

	jobWord := "jobs"
	if len(jobs) == 1 {
		jobWord = "job"
	}
	fmt.Printf("Found %d %s\n\n", len(jobs), jobWord)

	for i, j := range jobs {
		title := j.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d. %s", i+1+c.Offset, truncate(title, 60))
		if j.Company != "" {
			fmt.Printf(" @ %s", j.Company)
		}
		fmt.Println()

		fmt.Printf("   %s\n", j.CanonicalURL)

		meta := []string{string(j.Status), j.Source, j.UpdatedAt.Local().Format(displayTime), j.JobKey}
		if j.Location != "" {
			meta = append(meta, j.Location)
		}
		fmt.Printf("   %s\n", strings.Join(meta, " · "))

		if i < len(jobs)-1 {
			fmt.Println()
		}
	}
}
