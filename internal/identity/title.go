package identity

import (
	"regexp"
	"strings"
)

// Guess is a best-effort reading of a page title. Any field may be empty and
// every field is meant to be shown to the user for correction.
type Guess struct {
	Title    string
	Company  string
	Location string
}

var (
	siteSuffixPattern = regexp.MustCompile(`(?i)\s*[|\-–—]\s*(linkedin|indeed(\.com)?|glassdoor|greenhouse|lever|workday|smartrecruiters|ashby|workable)\s*$`)
	applicationFor    = regexp.MustCompile(`(?i)^job application for (.+?) at (.+)$`)
	hiringIn          = regexp.MustCompile(`(?i)^(.+?) hiring (.+?) in (.+)$`)
	segmentSeparator  = regexp.MustCompile(`\s+[|\-–—]\s+`)
)

// GuessFromPageTitle splits a browser page title into title, company and
// location. source is the platform tag of the page and only changes the
// reading of two-part titles on boards that put the company first.
func GuessFromPageTitle(pageTitle, source string) Guess {
	s := strings.TrimSpace(pageTitle)
	for {
		stripped := siteSuffixPattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}
	if s == "" {
		return Guess{}
	}

	if m := applicationFor.FindStringSubmatch(s); m != nil {
		return Guess{Title: strings.TrimSpace(m[1]), Company: strings.TrimSpace(m[2])}
	}
	if m := hiringIn.FindStringSubmatch(s); m != nil {
		return Guess{
			Company:  strings.TrimSpace(m[1]),
			Title:    strings.TrimSpace(m[2]),
			Location: strings.TrimSpace(m[3]),
		}
	}

	parts := segmentSeparator.Split(s, -1)
	switch {
	case len(parts) == 2 && companyFirst(source):
		return Guess{Company: parts[0], Title: parts[1]}
	case len(parts) == 2:
		return Guess{Title: parts[0], Company: parts[1]}
	case len(parts) >= 3:
		return Guess{Title: parts[0], Company: parts[1], Location: parts[2]}
	}

	if i := strings.LastIndex(s, " at "); i > 0 {
		return Guess{Title: strings.TrimSpace(s[:i]), Company: strings.TrimSpace(s[i+4:])}
	}

	return Guess{Title: s}
}

// companyFirst reports boards whose page titles read "Company - Title".
func companyFirst(source string) bool {
	switch source {
	case "lever", "ashby":
		return true
	}
	return false
}
