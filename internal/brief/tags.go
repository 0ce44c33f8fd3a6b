package brief

import (
	"regexp"
	"strings"
)

// MarkerTag is the mandatory tag every published brief carries. The policy
// filter appends it when the model forgot it.
const MarkerTag = "#AI"

// vendorDenylist names the generation backends whose brand names must never
// leak into published tags. Matching is case-insensitive on the token without
// its leading '#'. Business constraint, not a technical one.
var vendorDenylist = []string{
	"veo",
	"sora",
	"gemini",
	"imagen",
	"runway",
}

var tagPattern = regexp.MustCompile(`#\w+`)

// ApplyTagPolicy tokenizes a raw tag string into hashtag tokens, drops
// denylisted vendor tokens, and guarantees the marker tag is present. Kept
// tokens preserve their original relative order; the marker is appended last
// only when missing. The function is total and idempotent: it never fails,
// and filtering an already-filtered result is a no-op.
func ApplyTagPolicy(tags string) []string {
	tokens := tagPattern.FindAllString(tags, -1)

	out := make([]string, 0, len(tokens)+1)
	hasMarker := false
	for _, tok := range tokens {
		if denylisted(tok) {
			continue
		}
		if strings.EqualFold(tok, MarkerTag) {
			hasMarker = true
		}
		out = append(out, tok)
	}
	if !hasMarker {
		out = append(out, MarkerTag)
	}
	return out
}

func denylisted(token string) bool {
	bare := strings.TrimPrefix(token, "#")
	for _, banned := range vendorDenylist {
		if strings.EqualFold(bare, banned) {
			return true
		}
	}
	return false
}
