// Package domains turns arbitrary domain-list CSV files into a clean,
// deduplicated list of canonical hosts.
package domains

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// headerAliases are the column names recognized as domain columns, in
// preference order, compared case-insensitively.
var headerAliases = []string{"domain", "website", "website_url", "url", "site", "homepage"}

// candidateDelimiters considered when sniffing the file dialect.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Load reads the CSV at path and returns canonical domains, deduplicated and
// in first-occurrence order. A header-only file yields an empty list; a
// missing file is an error.
func Load(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain list %s: %w", path, err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	delim := sniffDelimiter(text)
	if hasKnownHeader(text, delim) {
		return parseHeadered(text, delim)
	}
	return parseHeaderless(text), nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the sample,
// falling back to comma when nothing stands out.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(sample, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// hasKnownHeader parses the first line through encoding/csv so quoted
// headers ("domain","name") are unwrapped before alias matching.
func hasKnownHeader(text string, delim rune) bool {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return false
	}
	for _, field := range fields {
		if isKnownHeader(field) {
			return true
		}
	}
	return false
}

func isKnownHeader(field string) bool {
	norm := strings.ToLower(strings.TrimSpace(field))
	for _, alias := range headerAliases {
		if norm == alias {
			return true
		}
	}
	return false
}

// parseHeadered reads rows through encoding/csv and resolves, per row, the
// first preferred column with a non-empty value, else the first column.
func parseHeadered(text string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse domain csv: %w", err)
	}
	if len(records) == 0 {
		return []string{}, nil
	}

	header := records[0]
	var tryCols []int
	for _, alias := range headerAliases {
		for i, field := range header {
			if strings.ToLower(strings.TrimSpace(field)) == alias {
				tryCols = append(tryCols, i)
			}
		}
	}

	var out []string
	for _, row := range records[1:] {
		raw := ""
		for _, col := range tryCols {
			if col < len(row) && strings.TrimSpace(row[col]) != "" {
				raw = strings.TrimSpace(row[col])
				break
			}
		}
		if raw == "" && len(row) > 0 {
			raw = strings.TrimSpace(row[0])
		}
		if d := CanonicalDomain(raw); d != "" {
			out = append(out, d)
		}
	}
	return dedupePreserveOrder(out), nil
}

// parseHeaderless splits each line only on common delimiters (never '.') and
// canonicalizes the first token.
func parseHeaderless(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		first := line
		for _, d := range []string{",", ";", "\t"} {
			if cut, _, found := strings.Cut(first, d); found {
				first = cut
				break
			}
		}
		if d := CanonicalDomain(first); d != "" {
			out = append(out, d)
		}
	}
	return dedupePreserveOrder(out)
}

// CanonicalDomain normalizes a raw value to a bare lowercase host: no scheme,
// no www. prefix, no path/query/fragment, no trailing dots. Returns "" when
// no host remains.
func CanonicalDomain(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if i := strings.Index(v, "://"); i >= 0 {
		v = v[i+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if cut, _, found := strings.Cut(v, sep); found {
			v = cut
		}
	}
	v = strings.TrimRight(v, ".")
	v = strings.ToLower(v)
	v = strings.TrimPrefix(v, "www.")
	return v
}

func dedupePreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
