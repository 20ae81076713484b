// Package crawler implements the protocol/retry fetch engine: one domain in,
// one fully-populated output record out, never an error.
package crawler

import (
	"strings"
	"time"
	"unicode"
)

// Record is the per-domain output object. Field order here is the NDJSON
// field order consumers see.
type Record struct {
	Domain         string   `json:"domain"`
	URL            string   `json:"url"`
	Phones         []string `json:"phones"`
	CompanyName    *string  `json:"company_name"`
	FacebookURL    *string  `json:"facebook_url"`
	LinkedInURL    *string  `json:"linkedin_url"`
	TwitterURL     *string  `json:"twitter_url"`
	InstagramURL   *string  `json:"instagram_url"`
	Address        *string  `json:"address"`
	CrawledAt      string   `json:"crawled_at"`
	HTTPStatus     int      `json:"http_status"`
	ResponseTimeMS int      `json:"response_time_ms"`
	PageSizeBytes  int      `json:"page_size_bytes"`
	Method         string   `json:"method"`
	Error          *string  `json:"error"`
	RedirectChain  []string `json:"redirect_chain,omitempty"`
}

// optString maps "" to JSON null.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isoMillis renders a timestamp as ISO-8601 UTC with millisecond precision
// and a literal Z suffix.
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NewErrorRecord builds a failure record: zero status and size, empty
// extraction fields, and a domain-derived company name.
func NewErrorRecord(domain, url, msg string, now time.Time) Record {
	return Record{
		Domain:      domain,
		URL:         url,
		Phones:      []string{},
		CompanyName: optString(DeriveCompanyName(domain)),
		CrawledAt:   isoMillis(now),
		Method:      "http",
		Error:       optString(msg),
	}
}

// DeriveCompanyName builds a fallback display name from the domain's first
// label: "acme-widgets.com" becomes "Acme Widgets". Returns "" when the
// label has no alphanumeric content.
func DeriveCompanyName(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, label)
	tokens := strings.Fields(mapped)
	for i, tok := range tokens {
		r := []rune(tok)
		r[0] = unicode.ToUpper(r[0])
		tokens[i] = string(r)
	}
	return strings.Join(tokens, " ")
}
