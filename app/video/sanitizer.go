package video

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Search responses wrap keyword hits in <em> spans for highlighting.
// Those are unwrapped first so their text survives the generic tag strip.
var (
	highlightRe  = regexp.MustCompile(`<em[^>]*>(.*?)</em>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize strips embedded markup from a free-text field and normalizes it.
// Empty input maps to "N/A" rather than an error; absent fields are a normal
// condition for search results. Sanitize is idempotent.
func Sanitize(text string) string {
	if text == "" {
		return "N/A"
	}

	clean := highlightRe.ReplaceAllString(text, "$1")
	clean = tagRe.ReplaceAllString(clean, "")
	clean = norm.NFKC.String(clean)
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return "N/A"
	}

	return clean
}
