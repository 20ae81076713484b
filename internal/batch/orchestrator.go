// Package batch runs the crawl over a domain list in bounded concurrent
// chunks.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/crawler"
)

// Fetcher produces one record per domain.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) crawler.Record
}

// Sink receives completed records.
type Sink interface {
	Write(rec crawler.Record) error
}

// IDSource mints the run identifier.
type IDSource interface {
	NewID() (string, error)
}

// CacheStats exposes the robots cache size for the run summary.
type CacheStats interface {
	Stats() int
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// Summary describes one completed run.
type Summary struct {
	RunID           string
	Domains         int
	Succeeded       int
	Blocked         int
	Failed          int
	Elapsed         time.Duration
	RobotsCacheSize int
}

// Orchestrator partitions the domain list into chunks of at most the
// configured concurrency, runs each chunk's fetches in parallel, and waits
// for the whole chunk before dispatching the next. Every domain yields
// exactly one record; a panicking fetch is converted into an error record
// rather than aborting the run.
type Orchestrator struct {
	fetcher     Fetcher
	sink        Sink
	ids         IDSource
	robots      CacheStats // nil when robots compliance is off
	clock       Clock
	concurrency int
	logger      *zap.Logger
}

// New constructs an Orchestrator. robots, clock, and logger may be nil.
func New(fetcher Fetcher, sink Sink, ids IDSource, robots CacheStats, clock Clock, concurrency int, logger *zap.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:     fetcher,
		sink:        sink,
		ids:         ids,
		robots:      robots,
		clock:       clock,
		concurrency: concurrency,
		logger:      logger,
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Run crawls every domain and returns the run summary. Cancellation stops
// new-chunk dispatch; the in-flight chunk still completes and its output
// stays written.
func (o *Orchestrator) Run(ctx context.Context, domains []string) Summary {
	runID := ""
	if o.ids != nil {
		id, err := o.ids.NewID()
		if err != nil {
			o.logger.Warn("run id generation failed", zap.Error(err))
		} else {
			runID = id
		}
	}

	start := o.clock.Now()
	o.logger.Info("crawl run starting",
		zap.String("run_id", runID),
		zap.Int("domains", len(domains)),
		zap.Int("concurrency", o.concurrency))

	var (
		mu        sync.Mutex
		succeeded int
		blocked   int
		failed    int
	)

	for i, chunk := range chunked(domains, o.concurrency) {
		if ctx.Err() != nil {
			o.logger.Warn("run canceled, skipping remaining chunks",
				zap.String("run_id", runID),
				zap.Int("next_chunk", i))
			break
		}

		var wg sync.WaitGroup
		for _, domain := range chunk {
			wg.Add(1)
			go func(domain string) {
				defer wg.Done()
				rec := o.fetchSafely(ctx, domain)

				mu.Lock()
				switch {
				case rec.Error == nil:
					succeeded++
				case *rec.Error == "Blocked by robots.txt":
					blocked++
				default:
					failed++
				}
				mu.Unlock()

				if err := o.sink.Write(rec); err != nil {
					o.logger.Error("record write failed",
						zap.String("domain", domain),
						zap.Error(err))
				}
			}(domain)
		}
		wg.Wait()
		o.logger.Debug("chunk complete", zap.String("run_id", runID), zap.Int("chunk", i))
	}

	s := Summary{
		RunID:     runID,
		Domains:   len(domains),
		Succeeded: succeeded,
		Blocked:   blocked,
		Failed:    failed,
		Elapsed:   o.clock.Now().Sub(start),
	}
	if o.robots != nil {
		s.RobotsCacheSize = o.robots.Stats()
	}

	rate := 0.0
	if secs := s.Elapsed.Seconds(); secs > 0 {
		rate = float64(s.Domains) / secs
	}
	o.logger.Info("crawl run finished",
		zap.String("run_id", s.RunID),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("blocked", s.Blocked),
		zap.Int("failed", s.Failed),
		zap.Duration("elapsed", s.Elapsed),
		zap.Float64("domains_per_sec", rate))
	return s
}

// fetchSafely converts a panicking fetch into an error record so one bad
// domain cannot take down the whole chunk.
func (o *Orchestrator) fetchSafely(ctx context.Context, domain string) (rec crawler.Record) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("fetch panicked",
				zap.String("domain", domain),
				zap.Any("panic", r))
			msg := truncate(fmt.Sprintf("Unexpected error: %v", r), 200)
			rec = crawler.NewErrorRecord(domain, "https://"+domain, msg, o.clock.Now())
		}
	}()
	return o.fetcher.Fetch(ctx, domain)
}

func chunked(domains []string, size int) [][]string {
	var out [][]string
	for len(domains) > size {
		out = append(out, domains[:size])
		domains = domains[size:]
	}
	if len(domains) > 0 {
		out = append(out, domains)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
