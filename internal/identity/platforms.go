package identity

import (
	"net/url"
	"regexp"
	"strings"
)

// SourceManual is the source tag for postings on no known platform.
const SourceManual = "manual"

// Platform is one row of the job-board table. A row matches a URL when any
// of Hosts is a substring of the lower-cased hostname; its ID is the first
// non-empty value among QueryParams, then the first capture group of the
// first matching PathPatterns entry.
type Platform struct {
	Tag          string
	Hosts        []string
	QueryParams  []string
	PathPatterns []*regexp.Regexp
}

// Platforms is consulted in order; the first row that matches the host and
// yields an ID decides the job key.
var Platforms = []Platform{
	{
		Tag:          "greenhouse",
		Hosts:        []string{"greenhouse.io"},
		QueryParams:  []string{"gh_jid"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`/jobs/(\d+)`)},
	},
	{
		Tag:          "lever",
		Hosts:        []string{"jobs.lever.co", "jobs.eu.lever.co"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`^/[^/]+/([A-Za-z0-9-]+)`)},
	},
	{
		Tag:          "workday",
		Hosts:        []string{"myworkdayjobs.com", "myworkdaysite.com", "workday.com"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`_([A-Za-z0-9-]+)(?:/apply(?:/[^/]*)?)?$`)},
	},
	{
		Tag:          "linkedin",
		Hosts:        []string{"linkedin.com"},
		QueryParams:  []string{"currentJobId"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`/jobs/view/(?:[^/]*-)?(\d+)`)},
	},
	{
		Tag:         "indeed",
		Hosts:       []string{"indeed.com"},
		QueryParams: []string{"jk", "vjk"},
	},
	{
		Tag:          "smartrecruiters",
		Hosts:        []string{"smartrecruiters.com"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`^/[^/]+/(\d+)`)},
	},
	{
		Tag:          "ashby",
		Hosts:        []string{"ashbyhq.com"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`^/[^/]+/([0-9a-fA-F-]{36})`)},
	},
	{
		Tag:          "workable",
		Hosts:        []string{"workable.com"},
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`/j/([A-Za-z0-9]+)`)},
	},
	{
		Tag:         "glassdoor",
		Hosts:       []string{"glassdoor."},
		QueryParams: []string{"jl", "jobListingId"},
	},
}

// MatchesHost reports whether host (already lower-cased) belongs to p.
func (p Platform) MatchesHost(host string) bool {
	for _, h := range p.Hosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// ExtractID returns the platform-native posting ID in u, or "".
func (p Platform) ExtractID(u *url.URL) string {
	q := u.Query()
	for _, name := range p.QueryParams {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	for _, re := range p.PathPatterns {
		if m := re.FindStringSubmatch(u.Path); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

// platformKey folds over table and returns the key of the first row that
// matches u's host and yields an ID.
func platformKey(table []Platform, u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	for _, p := range table {
		if !p.MatchesHost(host) {
			continue
		}
		if id := p.ExtractID(u); id != "" {
			return p.Tag + "_" + id, true
		}
	}
	return "", false
}
