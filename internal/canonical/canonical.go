// Package canonical normalizes job-posting URLs into a comparable form.
//
// Two captures of the same posting that differ only in tracking parameters,
// host casing, a trailing slash or query parameter order canonicalize to the
// same string. The canonical form is used for revisit detection and is stored
// verbatim next to the original URL.
package canonical

import (
	"net/url"
	"sort"
	"strings"
)

// Parse parses raw as an absolute URL with a host. The bool is false for
// anything that would not be accepted as a page address.
func Parse(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// Canonicalize returns the canonical form of raw. Unparseable input is
// returned unchanged.
func Canonicalize(raw string) string {
	u, ok := Parse(raw)
	if !ok {
		return raw
	}

	u.RawQuery = cleanQuery(u.RawQuery)
	u.ForceQuery = false

	u.Host = strings.ToLower(u.Host)

	switch {
	case u.Path == "":
		u.Path = "/"
		u.RawPath = ""
	case u.Path != "/" && strings.HasSuffix(u.Path, "/"):
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}

	return u.String()
}

// Hostname returns the lower-cased host of raw without its port.
func Hostname(raw string) (string, bool) {
	u, ok := Parse(raw)
	if !ok {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// queryPair is one raw name=value segment of a query string.
type queryPair struct {
	name string // unescaped, for matching and ordering
	raw  string
}

// cleanQuery drops tracking parameters from rawQuery and stable-sorts the
// rest by name. Pairs are kept byte for byte, so segments url.ParseQuery
// would reject (a bad escape, a ';') survive instead of being lost.
func cleanQuery(rawQuery string) string {
	var pairs []queryPair
	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}
		name, _, _ := strings.Cut(seg, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if IsTrackingParam(name) {
			continue
		}
		pairs = append(pairs, queryPair{name: name, raw: seg})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })

	raw := make([]string, len(pairs))
	for i, p := range pairs {
		raw[i] = p.raw
	}
	return strings.Join(raw, "&")
}
