package extract

// Result holds every identity signal pulled from one page. Empty strings
// mean "not found"; Phones is never nil.
type Result struct {
	CompanyName  string
	Phones       []string
	FacebookURL  string
	LinkedInURL  string
	TwitterURL   string
	InstagramURL string
	Address      string
}

// Extract runs every field cascade over the HTML. It is deterministic and
// never panics; one field failing to match does not affect the others.
func Extract(html string) Result {
	if html == "" {
		return Result{Phones: []string{}}
	}
	return Result{
		CompanyName:  CompanyName(html),
		Phones:       Phones(html),
		FacebookURL:  FacebookURL(html),
		LinkedInURL:  LinkedInURL(html),
		TwitterURL:   TwitterURL(html),
		InstagramURL: InstagramURL(html),
		Address:      Address(html),
	}
}
