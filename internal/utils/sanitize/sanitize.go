package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTermLen caps coin ids and search terms accepted from clients.
const MaxTermLen = 100

// strict strips every tag and attribute. The policy is read-only after
// construction, so it is shared across requests; never mutate it.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Sanitize removes HTML from s, leaving a space where a tag was.
//
//   - "<script>alert(1)</script>btc" -> "btc"
//   - "<b>sol</b>ana" -> " sol ana"
func Sanitize(s string) string {
	return strict.Sanitize(s)
}

// Clean strips HTML, unescapes entities and collapses whitespace runs
// into single spaces.
func Clean(s string) string {
	out := html.UnescapeString(strings.TrimSpace(Sanitize(s)))
	out = strings.ReplaceAll(out, "\u00a0", " ")
	return strings.Join(strings.Fields(out), " ")
}

// Term normalizes a user-supplied coin symbol, id or search query:
// cleaned, lowercased and truncated to MaxTermLen runes, the unit the
// request validator's max tag counts.
func Term(s string) string {
	out := strings.ToLower(Clean(s))
	if utf8.RuneCountInString(out) <= MaxTermLen {
		return out
	}
	n := 0
	for i := range out {
		if n == MaxTermLen {
			return strings.TrimSpace(out[:i])
		}
		n++
	}
	return out
}
