package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var organizationTypes = []string{"Organization", "LocalBusiness", "Corporation", "LegalService"}

var (
	ogSiteNameRe      = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:site_name["'][^>]*content=["']([^"']+)["']`)
	titleRe           = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	trailingSepRe     = regexp.MustCompile(`[\s\-–—|:.,!;]+$`)
	titleSuffixWordRe = regexp.MustCompile(`(?i)\s*[|\-–—:]\s*(?:Home|About|Services|Contact|Welcome|Official|Site|Website|Estate|Planning|Law|Legal).*$`)
	titleTaglineRe    = regexp.MustCompile(`\s*[|\-–—]\s+.{15,}$`)
	titleAfterSepRe   = regexp.MustCompile(`\s*[|\-–—]\s+[^|]+$`)
	titleBareSuffixRe = regexp.MustCompile(`(?i)\s+(?:Home\s+Page|Home|Website|Official\s+Site|Official\s+Website|Web\s+Site)$`)
)

// CompanyName extracts a company name, trying JSON-LD organization data,
// then og:site_name, then a cleaned <title>. Returns "" when nothing
// plausible is found; callers fall back to a domain-derived name.
func CompanyName(html string) string {
	if html == "" {
		return ""
	}
	if name := companyFromJSONLD(html); name != "" {
		return name
	}
	if name := companyFromOpenGraph(html); name != "" {
		return name
	}
	return companyFromTitle(html)
}

func companyFromJSONLD(html string) string {
	for _, block := range jsonLDBlocks(html) {
		var payload any
		if err := json.Unmarshal([]byte(block), &payload); err != nil {
			continue // malformed block, not fatal
		}
		for _, item := range asObjectList(payload) {
			if !isOrganizationType(item["@type"]) {
				continue
			}
			name, _ := item["name"].(string)
			if name == "" {
				name, _ = item["legalName"].(string)
			}
			if name == "" {
				continue
			}
			cleaned := cleanText(name)
			if isValidCompanyName(cleaned) {
				return cleaned
			}
		}
	}
	return ""
}

func companyFromOpenGraph(html string) string {
	m := ogSiteNameRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	name := cleanText(m[1])
	name = trailingSepRe.ReplaceAllString(name, "")
	if isValidCompanyName(name) {
		return name
	}
	return ""
}

func companyFromTitle(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	title := m[1]
	title = titleSuffixWordRe.ReplaceAllString(title, "")
	title = titleTaglineRe.ReplaceAllString(title, "")
	title = titleAfterSepRe.ReplaceAllString(title, "")
	title = trailingSepRe.ReplaceAllString(title, "")
	title = titleBareSuffixRe.ReplaceAllString(title, "")
	title = cleanText(title)
	if isValidCompanyName(title) && len(title) < 50 {
		return title
	}
	return ""
}

// isValidCompanyName gates candidates: non-trivial length, not URL-shaped,
// not a whole sentence.
func isValidCompanyName(name string) bool {
	if len(name) < 2 || len(name) > 80 {
		return false
	}
	lower := strings.ToLower(name)
	for _, pattern := range []string{"http://", "https://", "www.", ".com/", ".org/", ".net/"} {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

// asObjectList flattens a decoded JSON-LD payload into its object members:
// a single object becomes a one-element list, an array keeps its objects.
func asObjectList(payload any) []map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}

// isOrganizationType matches @type values (string or list) against the
// recognized organization schema types.
func isOrganizationType(raw any) bool {
	joined := ""
	switch v := raw.(type) {
	case string:
		joined = v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		joined = strings.Join(parts, " ")
	default:
		return false
	}
	for _, t := range organizationTypes {
		if strings.Contains(joined, t) {
			return true
		}
	}
	return false
}
