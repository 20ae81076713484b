// Package extract derives structured company identity signals from raw HTML.
// All extractors are pure functions over the HTML string: no DOM is built,
// and a malformed document degrades to empty results rather than errors.
package extract

import (
	"regexp"
	"strings"
)

var (
	blockTagRe     = regexp.MustCompile(`(?i)<(?:br|p|div|li|tr|td|th)[^>]*>`)
	anyTagRe       = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	scriptBlockRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptRe     = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	jsonLDScriptRe = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// stripTags removes HTML tags, replacing block elements with spaces so word
// boundaries survive.
func stripTags(html string) string {
	if html == "" {
		return ""
	}
	text := blockTagRe.ReplaceAllString(html, " ")
	text = anyTagRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// cleanText decodes the common HTML entities and collapses whitespace.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = entityReplacer.Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// removeScriptStyle drops script, style, and noscript blocks wholesale.
func removeScriptStyle(html string) string {
	if html == "" {
		return ""
	}
	html = scriptBlockRe.ReplaceAllString(html, "")
	html = styleBlockRe.ReplaceAllString(html, "")
	html = noscriptRe.ReplaceAllString(html, "")
	return html
}

// jsonLDBlocks returns the inner payloads of all JSON-LD script blocks.
func jsonLDBlocks(html string) []string {
	matches := jsonLDScriptRe.FindAllStringSubmatch(html, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
