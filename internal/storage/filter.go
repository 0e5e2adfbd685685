package storage

import (
	"sort"
	"strings"
)

// filterJobs applies f to jobs in memory with the same semantics as the
// SQLite List query. It is used by backends without a query language.
func filterJobs(jobs []Job, f JobFilter) ([]Job, error) {
	field := f.Sort
	if field == "" {
		field = SortUpdatedAt
	}
	if _, err := ParseSortField(string(field)); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.Source != "" && j.Source != f.Source {
			continue
		}
		if q != "" && !matchesQuery(j, q) {
			continue
		}
		out = append(out, j)
	}

	sort.SliceStable(out, func(a, b int) bool {
		c := compareJobs(out[a], out[b], field)
		if c == 0 {
			return out[a].JobKey < out[b].JobKey
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Job{}, nil
	}
	out = out[offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// matchesQuery reports whether the lower-cased query q occurs in j's
// search text, the same haystack SQLite stores in jobs.search_text.
func matchesQuery(j Job, q string) bool {
	return strings.Contains(searchText(&j), q)
}

func compareJobs(a, b Job, field SortField) int {
	switch field {
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortCompany:
		return strings.Compare(strings.ToLower(a.Company), strings.ToLower(b.Company))
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortStatus:
		return a.Status.rank() - b.Status.rank()
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

// computeStats aggregates jobs the way SQLiteStore.GetStats does.
func computeStats(jobs []Job) *Stats {
	stats := &Stats{ByStatus: make(map[Status]int64, len(Statuses))}
	for _, st := range Statuses {
		stats.ByStatus[st] = 0
	}

	bySource := map[string]int64{}
	for i, j := range jobs {
		stats.TotalJobs++
		stats.ByStatus[j.Status]++
		bySource[j.Source]++
		if i == 0 || j.CreatedAt.Before(stats.OldestCreated) {
			stats.OldestCreated = j.CreatedAt
		}
		if j.UpdatedAt.After(stats.NewestUpdated) {
			stats.NewestUpdated = j.UpdatedAt
		}
	}

	for src, n := range bySource {
		stats.BySource = append(stats.BySource, SourceCount{Source: src, Count: n})
	}
	sort.Slice(stats.BySource, func(a, b int) bool {
		if stats.BySource[a].Count != stats.BySource[b].Count {
			return stats.BySource[a].Count > stats.BySource[b].Count
		}
		return stats.BySource[a].Source < stats.BySource[b].Source
	})

	return stats
}
