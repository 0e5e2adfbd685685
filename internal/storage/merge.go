package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/jobtrack/internal/canonical"
)

// mergeForUpsert validates incoming and applies the timestamp rules against
// the stored record (nil when there is none). Both backends call it so a job
// saved through either one ends up identical.
func mergeForUpsert(existing, incoming *Job, now time.Time) (*Job, error) {
	if strings.TrimSpace(incoming.JobKey) == "" {
		return nil, ErrMissingJobKey
	}
	if strings.TrimSpace(incoming.OriginalURL) == "" {
		return nil, ErrMissingURL
	}

	out := *incoming
	out.ClearAppliedAt = false
	out.CanonicalURL = canonical.Canonicalize(out.OriginalURL)
	out.Tags = normalizeTags(out.Tags)

	if out.Status == "" {
		out.Status = StatusInterested
	}
	if !out.Status.Valid() {
		_, err := ParseStatus(string(out.Status))
		return nil, err
	}

	now = now.UTC().Truncate(time.Millisecond)

	if existing != nil {
		out.CreatedAt = existing.CreatedAt
	} else {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	switch {
	case incoming.ClearAppliedAt:
		out.AppliedAt = nil
	case existing != nil && existing.AppliedAt != nil:
		out.AppliedAt = existing.AppliedAt
	case incoming.AppliedAt != nil:
		out.AppliedAt = utcPtr(*incoming.AppliedAt)
	case out.Status == StatusApplied:
		out.AppliedAt = utcPtr(now)
	default:
		out.AppliedAt = nil
	}

	switch {
	case incoming.LastSeenAt != nil:
		out.LastSeenAt = utcPtr(*incoming.LastSeenAt)
	case existing != nil:
		out.LastSeenAt = existing.LastSeenAt
	}

	return &out, nil
}

// normalizeTags trims, de-duplicates and sorts tags. The result is never nil.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func utcPtr(t time.Time) *time.Time {
	u := t.UTC().Truncate(time.Millisecond)
	return &u
}
