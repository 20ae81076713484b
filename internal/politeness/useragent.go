package politeness

import (
	"fmt"
	"math/rand"
)

// defaultAgents holds realistic desktop browser user-agents covering
// Chrome/Firefox/Safari/Edge across Windows, macOS, and Linux.
var defaultAgents = []string{
	// Chrome on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	// Chrome on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	// Firefox on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:130.0) Gecko/20100101 Firefox/130.0",
	// Firefox on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:130.0) Gecko/20100101 Firefox/130.0",
	// Safari on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Safari/605.1.15",
	// Edge on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0",
	// Chrome on Linux
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
}

// UserAgentRotator selects realistic browser user-agents, optionally
// appending a parenthesized identifier so sites can tell who is crawling.
type UserAgentRotator struct {
	agents     []string
	identify   bool
	identifier string
}

// NewUserAgentRotator builds a rotator. agents may be nil to use the default
// pool.
func NewUserAgentRotator(agents []string, identify bool, identifier string) *UserAgentRotator {
	if len(agents) == 0 {
		agents = defaultAgents
	}
	return &UserAgentRotator{
		agents:     agents,
		identify:   identify,
		identifier: identifier,
	}
}

// GetRandom returns a uniformly chosen user-agent from the pool.
func (r *UserAgentRotator) GetRandom() string {
	return r.annotate(r.agents[rand.Intn(len(r.agents))])
}

// GetAll returns the full pool, annotated when identification is enabled.
func (r *UserAgentRotator) GetAll() []string {
	out := make([]string, len(r.agents))
	for i, a := range r.agents {
		out[i] = r.annotate(a)
	}
	return out
}

func (r *UserAgentRotator) annotate(agent string) string {
	if r.identify && r.identifier != "" {
		return fmt.Sprintf("%s (%s)", agent, r.identifier)
	}
	return agent
}
