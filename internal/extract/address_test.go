package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressFromJSONLD(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type":"LocalBusiness","name":"Acme","address":{
		"@type":"PostalAddress",
		"streetAddress":"123 Main Street",
		"addressLocality":"Springfield",
		"addressRegion":"IL",
		"postalCode":"62704"}}
	</script>`
	require.Equal(t, "123 Main Street, Springfield, IL, 62704", Address(html))
}

func TestAddressFromJSONLDPartial(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type":"Organization","address":{"streetAddress":"9 Rue de Rivoli","addressLocality":"Paris"}}
	</script>`
	require.Equal(t, "9 Rue de Rivoli, Paris", Address(html))
}

func TestAddressFromMicrodata(t *testing.T) {
	html := `<div itemprop="address" itemscope itemtype="https://schema.org/PostalAddress">
	<span itemprop="streetAddress">456 Oak Avenue, Suite 12</span>
	<span itemprop="addressLocality">Denver</span>
	</div>`
	require.Equal(t, "456 Oak Avenue, Suite 12", Address(html))
}

func TestAddressMicrodataIgnoresDistantStreet(t *testing.T) {
	pad := make([]byte, 2100)
	for i := range pad {
		pad[i] = 'x'
	}
	html := `<div itemprop="address">` + string(pad) +
		`<span itemprop="streetAddress">456 Oak Avenue, Suite 12</span></div>`
	require.Equal(t, "", Address(html))
}

func TestAddressFromTag(t *testing.T) {
	html := `<body><address>789 Pine Road<br>Austin, TX 78701</address></body>`
	require.Equal(t, "789 Pine Road Austin, TX 78701", Address(html))
}

func TestAddressFromKeywordStopsAtHours(t *testing.T) {
	html := `<p>Address: 123 Main Street, Springfield, IL 62704</p>
	<p>Business Hours: Mon-Fri 9-5</p>`
	require.Equal(t, "123 Main Street, Springfield, IL 62704", Address(html))
}

func TestAddressStructuredGolden(t *testing.T) {
	cases := map[string]string{
		"Our offices sit at 500 Elm Street, Portland, OR 97205 year round.": "500 Elm Street, Portland, OR 97205",
		"Find us at 42 Birch Lane, Suite 300, Boulder, CO 80301 today":      "42 Birch Lane, Suite 300, Boulder, CO 80301",
	}
	for text, want := range cases {
		require.Equal(t, want, Address("<p>"+text+"</p>"), "input %q", text)
	}
}

func TestAddressGateRejectsTiny(t *testing.T) {
	require.Equal(t, "", Address("<address>Short</address>"))
}

func TestAddressGateRejectsOverlong(t *testing.T) {
	long := "<address>"
	for i := 0; i < 30; i++ {
		long += "9999 Endless Repetition Road "
	}
	long += "</address>"
	require.Equal(t, "", Address(long))
}

func TestAddressIgnoresScriptContent(t *testing.T) {
	html := `<script>var a = "Address: 123 Main Street, Springfield, IL 62704";</script>`
	require.Equal(t, "", Address(html))
}

func TestAddressEmpty(t *testing.T) {
	require.Equal(t, "", Address(""))
	require.Equal(t, "", Address("<p>nothing postal here</p>"))
}
