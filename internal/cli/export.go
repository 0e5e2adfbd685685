package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/export"
	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession writes the export against a provided session (used by tests).
func (c *ExportCommand) executeWithSession(sess *session) error {
	want := make(map[storage.Status]bool, len(c.Status))
	for _, s := range c.Status {
		st, err := storage.ParseStatus(s)
		if err != nil {
			return apperr.InvalidInput("invalid --status", err)
		}
		want[st] = true
	}

	all, err := sess.store.List(context.Background(), storage.JobFilter{Sort: storage.SortCreatedAt})
	if err != nil {
		return tracker.StoreError("export failed", err)
	}

	jobs := all
	if len(want) > 0 {
		jobs = make([]storage.Job, 0, len(all))
		for _, j := range all {
			if want[j.Status] {
				jobs = append(jobs, j)
			}
		}
	}

	if c.Out == "" {
		return export.WriteCSV(os.Stdout, jobs)
	}

	if err := writeFile(c.Out, func(w io.Writer) error { return export.WriteCSV(w, jobs) }); err != nil {
		return err
	}

	sess.logger.Info("jobs exported", zap.String("path", c.Out), zap.Int("count", len(jobs)))
	if c.globals.JSON {
		return printJSON(map[string]interface{}{
			"path":  c.Out,
			"count": len(jobs),
		})
	}
	fmt.Printf("Exported %d jobs to %s\n", len(jobs), c.Out)
	return nil
}

// writeFile creates path (and its directory) and hands it to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
