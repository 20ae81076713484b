// Package politeness implements the ethical-crawling subsystem: robots.txt
// compliance with a TTL cache, and user-agent rotation.
package politeness

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/metrics"
)

const maxRobotsBodyBytes = 1 << 20

// Doer abstracts the HTTP client used for robots.txt fetches.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Clock returns the current time (injectable for TTL tests).
type Clock interface {
	Now() time.Time
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// RobotsCache caches per-domain robots.txt decisions with a TTL.
// Every failure path resolves to "allowed" — a compliance check that cannot
// complete must not block a legitimate crawl (fail-open).
type RobotsCache struct {
	mu        sync.Mutex
	cache     map[string]robotsEntry
	ttl       time.Duration
	userAgent string
	client    Doer
	clock     Clock
	logger    *zap.Logger
}

// NewRobotsCache builds a cache. client and clock may be nil; sensible
// defaults are used.
func NewRobotsCache(ttl time.Duration, userAgent string, client Doer, clock Clock, logger *zap.Logger) *RobotsCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RobotsCache{
		cache:     make(map[string]robotsEntry),
		ttl:       ttl,
		userAgent: userAgent,
		client:    client,
		clock:     clock,
		logger:    logger,
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CanFetch reports whether rawURL may be crawled by userAgent, plus the
// crawl-delay directive for the matched agent group (0 when absent). A cached
// decision is reused within the TTL window; an expired entry triggers exactly
// one refetch before reuse.
func (c *RobotsCache) CanFetch(rawURL, userAgent string) (bool, time.Duration) {
	ua := userAgent
	if ua == "" {
		ua = c.userAgent
	}

	scheme, host, err := splitURL(rawURL)
	if err != nil {
		c.logger.Warn("robots check: unparsable URL; allowing (fail-open)",
			zap.String("url", rawURL), zap.Error(err))
		return true, 0
	}

	data := c.lookup(scheme, host)
	group := data.FindGroup(ua)
	if group == nil {
		return true, 0
	}
	path := pathOf(rawURL)
	allowed := group.Test(path)
	if allowed {
		metrics.ObserveRobotsDecision("allowed")
	} else {
		metrics.ObserveRobotsDecision("blocked")
	}
	return allowed, group.CrawlDelay
}

// Stats returns the number of cached domains, for run summaries.
func (c *RobotsCache) Stats() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// lookup returns the cached robots data for host, fetching on miss or expiry.
// Cache-fill races are tolerated: last write wins.
func (c *RobotsCache) lookup(scheme, host string) *robotstxt.RobotsData {
	key := strings.ToLower(host)
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.cache[key]
	c.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		return entry.data
	}

	data := c.fetch(scheme, host)
	c.mu.Lock()
	c.cache[key] = robotsEntry{data: data, fetchedAt: now}
	c.mu.Unlock()
	return data
}

// fetch retrieves and parses {scheme}://{host}/robots.txt. Any failure yields
// a permissive allow-all ruleset, logged but never raised.
func (c *RobotsCache) fetch(scheme, host string) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	data, err := c.fetchParsed(robotsURL)
	if err != nil {
		metrics.ObserveRobotsDecision("fetch_error")
		c.logger.Warn("robots fetch failed; allowing all (fail-open)",
			zap.String("host", host), zap.Error(err))
		return allowAllRobots()
	}
	return data
}

func (c *RobotsCache) fetchParsed(robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

func allowAllRobots() *robotstxt.RobotsData {
	data, err := robotstxt.FromBytes(nil)
	if err != nil {
		// Empty input never fails to parse; guard anyway.
		return &robotstxt.RobotsData{}
	}
	return data
}

// splitURL extracts scheme and host from a URL or bare domain. Bare domains
// default to https.
func splitURL(rawURL string) (scheme, host string, err error) {
	v := strings.TrimSpace(rawURL)
	if v == "" {
		return "", "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.Parse(v)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("no host in %q", rawURL)
	}
	return u.Scheme, u.Host, nil
}

func pathOf(rawURL string) string {
	v := rawURL
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.Parse(v)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
