package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneFormats(t *testing.T) {
	for _, raw := range []string{
		"(202) 555-1234",
		"202-555-1234",
		"202.555.1234",
		"+1 202 555 1234",
	} {
		require.Equal(t, "+12025551234", NormalizePhone(raw), "input %q", raw)
	}
}

func TestNormalizePhoneStripsExtensions(t *testing.T) {
	require.Equal(t, "+12025551234", NormalizePhone("202-555-1234 ext. 89"))
	require.Equal(t, "+12025551234", NormalizePhone("202-555-1234 x42"))
	require.Equal(t, "+12025551234", NormalizePhone("(202) 555-1234 extension 7"))
}

func TestNormalizePhoneInternational(t *testing.T) {
	require.Equal(t, "+442012345678", NormalizePhone("+44 20 1234 5678"))
	require.Equal(t, "+12025551234", NormalizePhone("12025551234"))
	require.Equal(t, "+20255512", NormalizePhone("20255512")) // 8 digits, no country context
	require.Equal(t, "", NormalizePhone("555-1234"))          // too short
	require.Equal(t, "", NormalizePhone(""))
	require.Equal(t, "", NormalizePhone("+12"))
}

func TestPhonesExtractsAndDedupes(t *testing.T) {
	html := `<html><body>
		<p>Call us: (202) 555-1234</p>
		<p>Or: 202.555.1234</p>
		<p>Sales: 303-555-9876</p>
	</body></html>`
	got := Phones(html)
	require.Equal(t, []string{"+12025551234", "+13035559876"}, got)
}

func TestPhonesRejectsDatesAndPrices(t *testing.T) {
	require.Empty(t, Phones("Event on 2024-01-15"))
	require.Empty(t, Phones("Price: $1,234.56"))
}

func TestPhonesIgnoresScriptContent(t *testing.T) {
	html := `<script>var build = "2021-11-03 12:34:56.789";</script><p>No phones here</p>`
	require.Empty(t, Phones(html))
}

func TestPhonesEmptyInput(t *testing.T) {
	got := Phones("")
	require.NotNil(t, got)
	require.Empty(t, got)
}
