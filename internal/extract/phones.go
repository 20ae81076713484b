package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// phoneCandidateRe matches common phone groupings: optional country code,
	// optional area code, then 2-4 digit groups.
	phoneCandidateRe = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s()]*)?(?:\(?\d{2,4}\)?[-.\s]*)?\d{2,4}[-.\s]*\d{2,4}[-.\s]*\d{2,4}\b`)
	nonDigitRe       = regexp.MustCompile(`\D+`)
	dateShapedRe     = regexp.MustCompile(`^\d{4}[-/]\d{2}[-/]\d{2}$`)
	currencyShapedRe = regexp.MustCompile(`^[$€£]\s*[\d,]+\.?\d*$`)
	extensionRe      = regexp.MustCompile(`(?i)\s*(?:ext(?:ension)?|x)\s*\.?\s*\d+.*$`)
)

// Phones extracts phone numbers from text or HTML, normalized to E.164-like
// strings, deduplicated and sorted.
func Phones(html string) []string {
	if html == "" {
		return []string{}
	}
	text := stripTags(removeScriptStyle(html))

	seen := make(map[string]struct{})
	for _, candidate := range phoneCandidates(text) {
		if norm := NormalizePhone(candidate); norm != "" {
			seen[norm] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// phoneCandidates finds raw matches and filters obvious non-phones: wrong
// digit counts, date-shaped, and currency-shaped tokens.
func phoneCandidates(text string) []string {
	var out []string
	for _, candidate := range phoneCandidateRe.FindAllString(text, -1) {
		digits := nonDigitRe.ReplaceAllString(candidate, "")
		if len(digits) < 8 || len(digits) > 15 {
			continue
		}
		trimmed := strings.TrimSpace(candidate)
		if dateShapedRe.MatchString(trimmed) {
			continue
		}
		if currencyShapedRe.MatchString(trimmed) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// NormalizePhone reduces a raw phone string to an E.164-like form:
//   - extensions ("ext 12", "x345") are stripped first
//   - a leading '+' with >= 8 digits is trusted as-is
//   - 11 digits starting with 1, or 10 digits, become +1XXXXXXXXXX (US default)
//   - any other run of >= 8 digits is returned with a '+' prefix
//
// Returns "" for anything shorter.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(extensionRe.ReplaceAllString(s, ""))
	hasPlus := strings.HasPrefix(s, "+")
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return ""
	}

	if hasPlus {
		if len(digits) >= 8 {
			return "+" + digits
		}
		return ""
	}

	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return "+" + digits
	}
	if len(digits) == 10 {
		return "+1" + digits
	}

	if len(digits) >= 8 {
		return "+" + digits
	}
	return ""
}
