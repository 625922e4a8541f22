// Package textclean turns raw mail bodies into paragraph-preserving plain text.
package textclean

import (
	"regexp"
	"strings"
)

// LinkPlaceholder replaces every URL-like token
const LinkPlaceholder = "[Link]"

var (
	lineBreakRe    = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphEndRe = regexp.MustCompile(`(?i)</p\s*>`)
	divEndRe       = regexp.MustCompile(`(?i)</div\s*>`)
	tagRe          = regexp.MustCompile(`<[a-zA-Z/!?][^>]*>`)
	httpRe         = regexp.MustCompile(`http\S+`)
	wwwRe          = regexp.MustCompile(`www\.\S+`)
	imageRe        = regexp.MustCompile(`\[image:.*?\]`)
	horizontalWsRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe   = regexp.MustCompile(`\n\s*\n`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&gt;", ">",
		"&lt;", "<",
		"&amp;", "&",
		"&quot;", `"`,
	)
)

// Normalize strips markup and noise from raw while keeping paragraph breaks.
// It never fails; empty input yields an empty string.
//
// Entity decoding can re-create markup or entities (e.g. "&amp;lt;b&amp;gt;"),
// so the single pass is repeated until the text stops changing. This keeps
// Normalize idempotent. The loop terminates because a changing pass either
// shortens the text or makes a one-way rewrite (tab to space, URL to placeholder).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := cleanOnce(raw)
	for {
		next := cleanOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func cleanOnce(text string) string {
	// 1. Line-break markup to real newlines
	text = lineBreakRe.ReplaceAllString(text, "\n")
	text = paragraphEndRe.ReplaceAllString(text, "\n\n")
	text = divEndRe.ReplaceAllString(text, "\n")

	// 2. Remaining tags
	text = tagRe.ReplaceAllString(text, " ")

	// 3. URLs
	text = httpRe.ReplaceAllString(text, LinkPlaceholder)
	text = wwwRe.ReplaceAllString(text, LinkPlaceholder)

	// 4. Inline image placeholders
	text = imageRe.ReplaceAllString(text, "")

	// 5. Entities
	text = entityReplacer.Replace(text)

	// 6. Whitespace, keeping at most one blank line between paragraphs
	text = horizontalWsRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// Truncate returns at most n characters of s, counted in runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
