package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	facebookHrefRe  = regexp.MustCompile(`(?i)href=["'](https?://(?:www\.)?(?:facebook\.com|fb\.com)/[^"']+)["']`)
	linkedinHrefRe  = regexp.MustCompile(`(?i)href=["'](https?://(?:www\.)?linkedin\.com/(?:company|in)/[^"']+)["']`)
	twitterHrefRe   = regexp.MustCompile(`(?i)href=["'](https?://(?:www\.)?(?:twitter\.com|x\.com)/[^"']+)["']`)
	instagramHrefRe = regexp.MustCompile(`(?i)href=["'](https?://(?:www\.)?instagram\.com/[^"']+)["']`)
)

// FacebookURL returns the first Facebook profile link as a canonical
// host/path string, or "".
func FacebookURL(html string) string {
	if m := facebookHrefRe.FindStringSubmatch(html); m != nil {
		return CanonicalizeFacebook(m[1])
	}
	return ""
}

// LinkedInURL returns the first LinkedIn company/profile link, or "".
func LinkedInURL(html string) string {
	if m := linkedinHrefRe.FindStringSubmatch(html); m != nil {
		return canonicalHostPath(m[1])
	}
	return ""
}

// TwitterURL returns the first Twitter/X profile link, or "".
func TwitterURL(html string) string {
	if m := twitterHrefRe.FindStringSubmatch(html); m != nil {
		return canonicalHostPath(m[1])
	}
	return ""
}

// InstagramURL returns the first Instagram profile link, or "". The result
// must resolve under instagram.com or it is discarded, and is lowercased
// whole, handle included.
func InstagramURL(html string) string {
	m := instagramHrefRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	c := strings.ToLower(canonicalHostPath(m[1]))
	if strings.HasPrefix(c, "instagram.com/") || c == "instagram.com" {
		return c
	}
	return ""
}

// CanonicalizeFacebook normalizes a Facebook link: fb.com collapses to
// facebook.com and accidental doubled prefixes are removed.
func CanonicalizeFacebook(raw string) string {
	c := canonicalHostPath(raw)
	if c == "" {
		return ""
	}
	c = rewriteFBShorthand(c)
	// Bare handle with no host: assume a Facebook page name.
	if !strings.Contains(c, "/") && !strings.Contains(c, ".") {
		c = "facebook.com/" + c
	}
	c = rewriteFBShorthand(c)
	for strings.Contains(c, "facebook.com/facebook.com") {
		c = strings.ReplaceAll(c, "facebook.com/facebook.com", "facebook.com")
	}
	return c
}

func rewriteFBShorthand(c string) string {
	if c == "fb.com" {
		return "facebook.com"
	}
	if strings.HasPrefix(c, "fb.com/") {
		return "facebook.com" + c[len("fb.com"):]
	}
	return c
}

// canonicalHostPath reduces a URL or bare value to "host[/path]", lowercasing
// the host and dropping www. and trailing slashes.
func canonicalHostPath(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	var host, path string
	if u, err := url.Parse(v); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
		path = strings.Trim(u.Path, "/")
	} else {
		parts := strings.SplitN(v, "/", 2)
		host = strings.ToLower(parts[0])
		if len(parts) > 1 {
			path = strings.Trim(parts[1], "/")
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return ""
	}
	if path == "" {
		return host
	}
	return host + "/" + path
}
