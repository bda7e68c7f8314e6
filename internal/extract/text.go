// Package extract holds the low-level text extraction primitives the source
// adapters share: markup stripping, loose Korean date parsing and content
// hashing. Deliberately not a full HTML parser; the scraped boards ship
// malformed markup and the worst case here must be extra whitespace, never
// an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scriptRe  = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	brRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	closeRe   = regexp.MustCompile(`(?i)</(?:p|li|tr)>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	decEntRe  = regexp.MustCompile(`&#(\d+);`)
	hexEntRe  = regexp.MustCompile(`(?i)&#x([0-9a-f]+);`)
	spaceNLRe = regexp.MustCompile(`[ \t\r\f]+\n`)
	nlSpaceRe = regexp.MustCompile(`\n[ \t\r\f\n]+`)
	manyNLRe  = regexp.MustCompile(`\n{3,}`)
	namedEnts = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&#39;", "'",
	)
)

// StripHTML reduces markup to plain text. Script and style blocks are dropped
// wholesale, line-breaking tags become newlines, every other tag becomes a
// space, a fixed entity set is decoded and blank runs are collapsed.
// Idempotent on text that is already plain.
func StripHTML(markup string) string {
	s := scriptRe.ReplaceAllString(markup, "")
	s = styleRe.ReplaceAllString(s, "")
	s = brRe.ReplaceAllString(s, "\n")
	s = closeRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, " ")
	s = namedEnts.Replace(s)
	s = decEntRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(decEntRe.FindStringSubmatch(m)[1])
		if err != nil || n < 0 || n > 0x10FFFF {
			return m
		}
		return string(rune(n))
	})
	s = hexEntRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(hexEntRe.FindStringSubmatch(m)[1], 16, 32)
		if err != nil || n < 0 || n > 0x10FFFF {
			return m
		}
		return string(rune(n))
	})
	s = spaceNLRe.ReplaceAllString(s, "\n")
	s = nlSpaceRe.ReplaceAllString(s, "\n")
	s = manyNLRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// TruncateRunes caps s at max runes. Multibyte safe; the scraped boards are
// almost entirely Hangul, byte slicing would cut characters in half.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
