package canonical

import "strings"

// TrackingParams is the static deny-list of query parameter names that carry
// campaign or click attribution and never identify a posting. Names are
// matched case-insensitively.
var TrackingParams = []string{
	// UTM family
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"utm_id",
	"utm_name",
	"utm_reader",
	"utm_referrer",
	"utm_social",
	"utm_social-type",

	// Click identifiers
	"fbclid",
	"gclid",
	"gclsrc",
	"dclid",
	"msclkid",
	"yclid",
	"ttclid",
	"twclid",
	"li_fat_id",
	"igshid",
	"wbraid",
	"gbraid",

	// Generic referral / source
	"ref",
	"ref_src",
	"ref_url",
	"referrer",
	"src",
	"source",
	"trk",
	"trkinfo",
	"trackingid",
	"tracking_id",
	"refid",

	// Marketing automation
	"mc_cid",
	"mc_eid",
	"_hsenc",
	"_hsmi",
	"__hssc",
	"__hstc",
	"__hsfp",
	"hsctatracking",
	"mkt_tok",
	"oly_anon_id",
	"oly_enc_id",
	"vero_conv",
	"vero_id",
	"_ga",
	"_gl",

	// ATS-specific attribution
	"gh_src",
	"lever-source",
	"lever-origin",
}

var trackingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(TrackingParams))
	for _, p := range TrackingParams {
		m[strings.ToLower(p)] = struct{}{}
	}
	return m
}()

// IsTrackingParam reports whether name is on the deny-list.
func IsTrackingParam(name string) bool {
	_, ok := trackingSet[strings.ToLower(name)]
	return ok
}
