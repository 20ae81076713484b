package crawler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeriveCompanyName(t *testing.T) {
	cases := map[string]string{
		"acme-widgets.com":  "Acme Widgets",
		"example.com":       "Example",
		"EXAMPLE.com":       "EXAMPLE",
		"foo_bar.co.uk":     "Foo Bar",
		"123tools.io":       "123tools",
		"---.com":           "",
		"":                  "",
		"no-tld-single-dot": "No Tld Single Dot",
	}
	for domain, want := range cases {
		require.Equal(t, want, DeriveCompanyName(domain), "domain %q", domain)
	}
}

func TestIsoMillis(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	require.Equal(t, "2026-03-14T09:26:53.589Z", isoMillis(ts))

	est := time.FixedZone("EST", -5*3600)
	require.Equal(t, "2026-03-14T14:26:53.589Z", isoMillis(ts.In(est)))
}

func TestRecordJSONShape(t *testing.T) {
	rec := Record{
		Domain:     "example.com",
		URL:        "https://example.com",
		Phones:     []string{},
		CrawledAt:  "2026-03-14T09:26:53.589Z",
		HTTPStatus: 200,
		Method:     "http",
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "example.com", decoded["domain"])
	require.Nil(t, decoded["company_name"], "absent extraction fields serialize as null")
	require.Nil(t, decoded["error"])
	require.NotContains(t, decoded, "redirect_chain", "chain is omitted when no redirect happened")

	phones, ok := decoded["phones"].([]any)
	require.True(t, ok, "phones must be an array, never null")
	require.Empty(t, phones)
}
