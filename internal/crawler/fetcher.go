package crawler

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/extract"
	"github.com/phidi/identity-crawler/internal/metrics"
)

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RobotsPolicy answers whether a URL may be fetched and with what delay.
type RobotsPolicy interface {
	CanFetch(rawURL, userAgent string) (bool, time.Duration)
}

// AgentPool supplies the User-Agent for each fetch.
type AgentPool interface {
	GetRandom() string
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// Options configures the fetch state machine.
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	Protocols       []string // ordered, e.g. ["https", "http"]
	MaxAttempts     int
	BackoffBase     time.Duration
	JitterMax       time.Duration
	MaxPageBytes    int64
	FollowRedirects bool
	MaxRedirects    int
}

// Fetcher drives one domain through robots checking, the protocol/retry
// state machine, and extraction. Fetch never returns an error: every
// failure mode becomes a well-formed Record.
type Fetcher struct {
	opts   Options
	client Doer
	robots RobotsPolicy // nil disables robots compliance
	agents AgentPool    // nil disables rotation
	clock  Clock
	sleep  func(ctx context.Context, d time.Duration)
	jitter func() float64
	logger *zap.Logger
}

// New constructs a Fetcher. client, clock, and logger may be nil, in which
// case a redirect-bounded http.Client, the wall clock, and a no-op logger
// are used.
func New(opts Options, client Doer, robots RobotsPolicy, agents AgentPool, clock Clock, logger *zap.Logger) *Fetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if len(opts.Protocols) == 0 {
		opts.Protocols = []string{"https"}
	}
	if opts.MaxPageBytes <= 0 {
		opts.MaxPageBytes = 5 << 20
	}
	if client == nil {
		client = newHTTPClient(opts)
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		opts:   opts,
		client: client,
		robots: robots,
		agents: agents,
		clock:  clock,
		sleep:  sleepContext,
		jitter: rand.Float64,
		logger: logger,
	}
}

func newHTTPClient(opts Options) *http.Client {
	c := &http.Client{Timeout: opts.Timeout}
	if !opts.FollowRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if opts.MaxRedirects > 0 {
		limit := opts.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	}
	return c
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Fetch crawls one domain and returns its output record.
func (f *Fetcher) Fetch(ctx context.Context, domain string) Record {
	metrics.IncActiveFetches()
	defer metrics.DecActiveFetches()

	ua := f.opts.UserAgent
	if f.agents != nil {
		ua = f.agents.GetRandom()
	}

	if f.robots != nil {
		allowed, delay := f.robots.CanFetch("https://"+domain+"/", ua)
		if !allowed {
			f.logger.Info("blocked by robots.txt", zap.String("domain", domain))
			metrics.ObserveDomain("blocked", 0, 0)
			return f.errorRecord(domain, "https://"+domain+"/", 0, "Blocked by robots.txt")
		}
		if delay > 0 {
			f.sleep(ctx, delay)
		}
	}

	start := f.clock.Now()
	lastErr := ""

protocols:
	for _, proto := range f.opts.Protocols {
		url := proto + "://" + domain
		for attempt := 0; attempt < f.opts.MaxAttempts; attempt++ {
			if ctx.Err() != nil {
				break protocols
			}

			rec, err := f.attempt(ctx, domain, url, ua)
			if err == nil {
				return rec
			}

			kind, msg := classify(err, f.opts.Timeout.Seconds())
			lastErr = msg
			f.logger.Debug("fetch attempt failed",
				zap.String("domain", domain),
				zap.String("protocol", proto),
				zap.Int("attempt", attempt),
				zap.String("error", msg))

			switch kind {
			case kindTerminal:
				metrics.ObserveDomain("dns_error", 0, f.clock.Now().Sub(start))
				rec := f.errorRecord(domain, url, 0, msg)
				rec.ResponseTimeMS = int(f.clock.Now().Sub(start).Milliseconds())
				return rec
			case kindProtocol:
				metrics.ObserveRetry("protocol_fallback")
				continue protocols
			default:
				if attempt < f.opts.MaxAttempts-1 {
					metrics.ObserveRetry("backoff")
					f.sleep(ctx, f.backoff(attempt))
				}
			}
		}
	}

	if lastErr == "" {
		lastErr = "Unknown error"
	}
	metrics.ObserveDomain("exhausted", 0, f.clock.Now().Sub(start))
	rec := f.errorRecord(domain, "https://"+domain, 0, lastErr)
	rec.ResponseTimeMS = int(f.clock.Now().Sub(start).Milliseconds())
	return rec
}

// attempt performs a single GET. A non-nil error means the transport
// failed; any HTTP status, including 4xx/5xx, is a completed attempt.
func (f *Fetcher) attempt(ctx context.Context, domain, url, ua string) (Record, error) {
	reqCtx := ctx
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	started := f.clock.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxPageBytes))
	if err != nil {
		return Record{}, err
	}
	elapsed := f.clock.Now().Sub(started)

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	result := extract.Extract(string(body))
	company := result.CompanyName
	if company == "" {
		company = DeriveCompanyName(domain)
	}

	metrics.ObserveDomain("success", len(body), elapsed)

	return Record{
		Domain:         domain,
		URL:            finalURL,
		Phones:         result.Phones,
		CompanyName:    optString(company),
		FacebookURL:    optString(result.FacebookURL),
		LinkedInURL:    optString(result.LinkedInURL),
		TwitterURL:     optString(result.TwitterURL),
		InstagramURL:   optString(result.InstagramURL),
		Address:        optString(result.Address),
		CrawledAt:      isoMillis(f.clock.Now()),
		HTTPStatus:     resp.StatusCode,
		ResponseTimeMS: int(elapsed.Milliseconds()),
		PageSizeBytes:  len(body),
		Method:         "http",
		RedirectChain:  redirectChain(resp),
	}, nil
}

func (f *Fetcher) errorRecord(domain, url string, status int, msg string) Record {
	rec := NewErrorRecord(domain, url, msg, f.clock.Now())
	rec.HTTPStatus = status
	return rec
}

// backoff is base*2^attempt plus uniform jitter, 0-indexed.
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := float64(f.opts.BackoffBase) * math.Pow(2, float64(attempt))
	return time.Duration(d) + time.Duration(f.jitter()*float64(f.opts.JitterMax))
}

// redirectChain reconstructs the hop URLs from the response's request
// history. nil when the request was not redirected.
func redirectChain(resp *http.Response) []string {
	var hops []string
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		if r.Response.Request == nil || r.Response.Request.URL == nil {
			break
		}
		hops = append([]string{r.Response.Request.URL.String()}, hops...)
	}
	if len(hops) == 0 {
		return nil
	}
	return append(hops, resp.Request.URL.String())
}
