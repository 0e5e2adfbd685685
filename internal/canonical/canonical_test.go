package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm params",
			in:   "https://boards.greenhouse.io/acme/jobs/123?gh_jid=123&utm_source=x",
			want: "https://boards.greenhouse.io/acme/jobs/123?gh_jid=123",
		},
		{
			name: "lowers host but not path",
			in:   "https://Boards.GreenHouse.io/ACME/jobs/123/?gh_jid=123",
			want: "https://boards.greenhouse.io/ACME/jobs/123?gh_jid=123",
		},
		{
			name: "sorts remaining params",
			in:   "https://example.com/jobs?z=1&b=2&a=3",
			want: "https://example.com/jobs?a=3&b=2&z=1",
		},
		{
			name: "keeps order of repeated params",
			in:   "https://example.com/jobs?tag=go&a=1&tag=rust",
			want: "https://example.com/jobs?a=1&tag=go&tag=rust",
		},
		{
			name: "tracking names match case-insensitively",
			in:   "https://example.com/jobs/7?UTM_Campaign=spring&FBCLID=abc&id=7",
			want: "https://example.com/jobs/7?id=7",
		},
		{
			name: "drops question mark when every param is tracking",
			in:   "https://jobs.lever.co/acme/abcd-1234-ef56?lever-source=linkedin&gclid=1",
			want: "https://jobs.lever.co/acme/abcd-1234-ef56",
		},
		{
			name: "root path is kept",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "empty path becomes root",
			in:   "https://Example.com?utm_source=x",
			want: "https://example.com/",
		},
		{
			name: "strips exactly one trailing slash",
			in:   "https://example.com/careers/",
			want: "https://example.com/careers",
		},
		{
			name: "keeps port and fragment",
			in:   "http://LOCALHOST:8080/job/1/?b=2&a=1#apply",
			want: "http://localhost:8080/job/1?a=1&b=2#apply",
		},
		{
			name: "keeps userinfo",
			in:   "https://user@example.com/x",
			want: "https://user@example.com/x",
		},
		{
			name: "semicolon pair is kept whole",
			in:   "https://jobs.example.com/posting?id=42;utm_source=x",
			want: "https://jobs.example.com/posting?id=42;utm_source=x",
		},
		{
			name: "semicolon pair sorts with the rest",
			in:   "https://jobs.example.com/posting?id=7&a=1;b=2&utm_source=x",
			want: "https://jobs.example.com/posting?a=1;b=2&id=7",
		},
		{
			name: "bad percent escape is kept",
			in:   "https://jobs.example.com/posting?id=%zz&b=2",
			want: "https://jobs.example.com/posting?b=2&id=%zz",
		},
		{
			name: "bare flag is kept",
			in:   "https://jobs.example.com/posting?remote&utm_medium=email",
			want: "https://jobs.example.com/posting?remote",
		},
		{
			name: "escaped tracking name is removed",
			in:   "https://jobs.example.com/posting?utm%5Fsource=x&id=1",
			want: "https://jobs.example.com/posting?id=1",
		},
		{
			name: "values keep their original encoding",
			in:   "https://example.com/search?q=go+developer&page=2&city=S%C3%A3o%20Paulo",
			want: "https://example.com/search?city=S%C3%A3o%20Paulo&page=2&q=go+developer",
		},
		{
			name: "empty segments are dropped",
			in:   "https://example.com/jobs?&b=2&&a=1&",
			want: "https://example.com/jobs?a=1&b=2",
		},
		{
			name: "only one trailing slash is stripped",
			in:   "https://example.com/jobs//",
			want: "https://example.com/jobs/",
		},
		{
			name: "marketing automation params",
			in:   "https://example.com/j?_hsenc=p2&_hsmi=9&mkt_tok=zz&mc_cid=1&mc_eid=2&job=5",
			want: "https://example.com/j?job=5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Canonicalize(tc.in))
		})
	}
}

func TestCanonicalize_UnparseableReturnedUnchanged(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"/relative/path/",
		"example.com/careers/",
		"mailto:jobs@example.com",
		"http://[::1",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Canonicalize(in), "input %q", in)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	urls := []string{
		"https://boards.greenhouse.io/acme/jobs/4521?gh_jid=4521&utm_source=linkedin",
		"https://Example.COM/a/b/?z=1&a=hello%20world&utm_medium=email#top",
		"https://jobs.lever.co/acme/abcd-1234-ef56/",
		"https://www.linkedin.com/jobs/view/98765/?trk=public_jobs&refId=xyz",
		"http://example.com",
		"https://example.com/search?q=go+developer&q=rust&page=2",
		"https://example.com/p%2Fq/?x=%E2%9C%93",
	}
	for _, u := range urls {
		once := Canonicalize(u)
		assert.Equal(t, once, Canonicalize(once), "canonicalize(%q) is not idempotent", u)
	}
}

func TestCanonicalize_TrackingParamInvariance(t *testing.T) {
	base := "https://careers.example.com/openings/42?team=platform&level=senior"
	want := Canonicalize(base)

	variants := []string{
		base + "&utm_source=x",
		base + "&fbclid=abc&gclid=def",
		base + "&gclid=def&fbclid=abc&utm_campaign=q3",
		"https://careers.example.com/openings/42?level=senior&team=platform",
		"https://careers.example.com/openings/42?utm_term=go&level=senior&msclkid=1&team=platform",
	}
	for _, v := range variants {
		assert.Equal(t, want, Canonicalize(v), "variant %q", v)
	}
}

func TestCanonicalize_EveryTrackingParamIsRemoved(t *testing.T) {
	for _, p := range TrackingParams {
		got := Canonicalize("https://example.com/jobs/1?" + p + "=x&id=1")
		assert.Equal(t, "https://example.com/jobs/1?id=1", got, "param %q", p)
	}
}

func TestIsTrackingParam(t *testing.T) {
	assert.True(t, IsTrackingParam("utm_source"))
	assert.True(t, IsTrackingParam("UTM_SOURCE"))
	assert.True(t, IsTrackingParam("fbclid"))
	assert.False(t, IsTrackingParam("gh_jid"))
	assert.False(t, IsTrackingParam("jk"))
	assert.False(t, IsTrackingParam("currentJobId"))
}

func TestHostname(t *testing.T) {
	host, ok := Hostname("https://WWW.LinkedIn.com:443/jobs/view/1")
	assert.True(t, ok)
	assert.Equal(t, "www.linkedin.com", host)

	_, ok = Hostname("nope")
	assert.False(t, ok)
}
