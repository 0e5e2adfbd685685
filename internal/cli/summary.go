package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// summaryJSON is the JSON output structure for the summary command.
type summaryJSON struct {
	Version       string           `json:"version"`
	Backend       string           `json:"backend"`
	Location      string           `json:"location"`
	SizeBytes     int64            `json:"size_bytes,omitempty"`
	TotalJobs     int64            `json:"total_jobs"`
	ByStatus      map[string]int64 `json:"by_status"`
	BySource      []sourceJSON     `json:"by_source"`
	OldestCreated string           `json:"oldest_created,omitempty"`
	NewestUpdated string           `json:"newest_updated,omitempty"`
}

type sourceJSON struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for SummaryCommand.
func (c *SummaryCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession runs summary against a provided session (for testing).
func (c *SummaryCommand) executeWithSession(sess *session) error {
	stats, err := sess.store.GetStats(context.Background())
	if err != nil {
		return tracker.StoreError("get stats", err)
	}

	size := storeSize(sess)

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(sess, stats, size)
	}
	return c.printHuman(sess, stats, size)
}

func (c *SummaryCommand) printHuman(sess *session, stats *storage.Stats, size int64) error {
	fmt.Println("jobtrack Summary")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	if size > 0 {
		fmt.Printf("Store:         %s %s (%s)\n", sess.cfg.Storage.Backend, sess.location, formatBytes(size))
	} else {
		fmt.Printf("Store:         %s %s\n", sess.cfg.Storage.Backend, sess.location)
	}
	fmt.Printf("Jobs:          %s\n", formatNumber(stats.TotalJobs))

	if stats.TotalJobs > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestCreated.Local().Format("2006-01-02"))
		fmt.Printf("Last update:   %s\n", stats.NewestUpdated.Local().Format("2006-01-02"))
	}

	fmt.Println()
	fmt.Println("By Status:")
	for _, st := range storage.Statuses {
		fmt.Printf("  %-20s %s\n", st, formatNumber(stats.ByStatus[st]))
	}

	if len(stats.BySource) > 0 {
		fmt.Println()
		fmt.Println("By Source:")
		for _, s := range stats.BySource {
			fmt.Printf("  %-20s %s\n", s.Source, formatNumber(s.Count))
		}
	}

	return nil
}

func (c *SummaryCommand) printJSON(sess *session, stats *storage.Stats, size int64) error {
	out := summaryJSON{
		Version:   c.version,
		Backend:   sess.cfg.Storage.Backend,
		Location:  sess.location,
		SizeBytes: size,
		TotalJobs: stats.TotalJobs,
		ByStatus:  make(map[string]int64, len(storage.Statuses)),
		BySource:  make([]sourceJSON, len(stats.BySource)),
	}

	for _, st := range storage.Statuses {
		out.ByStatus[string(st)] = stats.ByStatus[st]
	}
	for i, s := range stats.BySource {
		out.BySource[i] = sourceJSON{Source: s.Source, Count: s.Count}
	}

	if stats.TotalJobs > 0 {
		out.OldestCreated = stats.OldestCreated.UTC().Format(time.RFC3339)
		out.NewestUpdated = stats.NewestUpdated.UTC().Format(time.RFC3339)
	}

	return printJSON(out)
}

// storeSize returns the SQLite database size in bytes, or 0 for other
// backends. For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func storeSize(sess *session) int64 {
	ss, ok := sess.store.(*storage.SQLiteStore)
	if !ok {
		return 0
	}

	if info, err := os.Stat(sess.location); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := ss.DB().QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := ss.DB().QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
