package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	itempropAddressRe = regexp.MustCompile(`(?i)<[^>]*itemprop=["']address["'][^>]*>`)
	itempropStreetRe  = regexp.MustCompile(`(?is)<[^>]*itemprop=["']streetAddress["'][^>]*>([^<]*)`)
	addressTagRe      = regexp.MustCompile(`(?is)<address[^>]*>(.*?)</address>`)

	addressKeywordRe = regexp.MustCompile(`(?is)(?:address|location|visit\s+us|headquarters?|office)[:\s]+([^<]+?(?:street|st|ave|avenue|road|rd|blvd|boulevard|drive|dr)[^<]{0,100})`)

	// addressStructuredRe matches a full US-style street address. Ported
	// literally; its order sensitivity against adjacent text is pinned by
	// golden tests rather than redesigned.
	addressStructuredRe = regexp.MustCompile(`(?i)\d+\s+[A-Za-z0-9\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Court|Ct)\.?,?\s*(?:Suite|Ste|Unit|#)?\s*[A-Za-z0-9]*,?\s*[A-Za-z\s]+,\s*(?:[A-Z]{2}|[A-Za-z\s]+)\s*\d{4,5}(?:-\d{4})?`)

	addressStopWordsRe = regexp.MustCompile(`(?i)\b(?:business\s+hours?|hours?|open|closed|monday|tuesday|wednesday|thursday|friday|saturday|sunday|phone|email|fax|contact)\b`)
)

// Address extracts a postal address, trying JSON-LD, microdata, the
// <address> tag, keyword-anchored text, and finally a structured street
// pattern. Returns "" when nothing passes the sanity gates.
func Address(html string) string {
	if html == "" {
		return ""
	}
	if addr := addressFromJSONLD(html); addr != "" {
		return addr
	}

	// Script/style content must not leak into text heuristics.
	clean := removeScriptStyle(html)

	if addr := addressFromMicrodata(clean); addr != "" {
		return addr
	}
	if addr := addressFromTag(clean); addr != "" {
		return addr
	}

	text := stripTags(clean)
	if addr := addressFromKeyword(text); addr != "" {
		return addr
	}
	return addressFromStructured(text)
}

func addressFromJSONLD(html string) string {
	for _, block := range jsonLDBlocks(html) {
		var payload any
		if err := json.Unmarshal([]byte(block), &payload); err != nil {
			continue
		}
		for _, item := range asObjectList(payload) {
			addr, ok := item["address"].(map[string]any)
			if !ok {
				continue
			}
			var parts []string
			for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
				if v, ok := addr[key].(string); ok && v != "" {
					parts = append(parts, cleanText(v))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
	}
	return ""
}

// addressFromMicrodata looks for a streetAddress itemprop nested after an
// address itemprop element, scanning a bounded window so a stray
// streetAddress elsewhere in the page is not picked up.
func addressFromMicrodata(html string) string {
	loc := itempropAddressRe.FindStringIndex(html)
	if loc == nil {
		return ""
	}
	window := html[loc[1]:]
	if len(window) > 2000 {
		window = window[:2000]
	}
	street := itempropStreetRe.FindStringSubmatch(window)
	if street == nil {
		return ""
	}
	addr := cleanText(strings.TrimSpace(street[1]))
	return gateAddress(truncateAtStopWord(addr))
}

func addressFromTag(html string) string {
	m := addressTagRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	addr := cleanText(stripTags(m[1]))
	return gateAddress(truncateAtStopWord(addr))
}

func addressFromKeyword(text string) string {
	m := addressKeywordRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	addr := cleanText(strings.TrimSpace(m[1]))
	return gateAddress(truncateAtStopWord(addr))
}

func addressFromStructured(text string) string {
	m := addressStructuredRe.FindString(text)
	if m == "" {
		return ""
	}
	return gateAddress(cleanText(strings.TrimSpace(m)))
}

// truncateAtStopWord cuts the candidate at the first business-hours/contact
// token so trailing non-address content is dropped.
func truncateAtStopWord(addr string) string {
	if loc := addressStopWordsRe.FindStringIndex(addr); loc != nil {
		return strings.TrimSpace(addr[:loc[0]])
	}
	return addr
}

// gateAddress accepts only plausibly-sized addresses.
func gateAddress(addr string) string {
	if len(addr) > 10 && len(addr) < 200 {
		return addr
	}
	return ""
}
