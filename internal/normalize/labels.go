package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// NormalizeLabel lowercases, collapses whitespace, and trims a document
// label or snippet so keyword matching sees one canonical form.
func NormalizeLabel(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return multiSpace.ReplaceAllString(s, " ")
}

// ContainsZeroToken reports whether the evidence text itself contains an
// explicit zero amount ("0", "0.00", "$0", "$0.00"). A zero total is only
// believable when the document literally said zero.
var zeroToken = regexp.MustCompile(`(^|[^0-9.])[$]?0+(\.0+)?([^0-9.]|$)`)

func ContainsZeroToken(evidence string) bool {
	return zeroToken.MatchString(strings.TrimSpace(evidence))
}
