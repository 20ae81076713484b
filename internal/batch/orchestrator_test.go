package batch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phidi/identity-crawler/internal/crawler"
)

type fakeFetcher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []string
	panicOn  string
	blockOn  string
	failOn   string
	delay    time.Duration
}

func (f *fakeFetcher) Fetch(_ context.Context, domain string) crawler.Record {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.calls = append(f.calls, domain)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if domain == f.panicOn {
		panic("exploding transport: " + strings.Repeat("boom ", 60))
	}

	now := time.Now()
	switch domain {
	case f.blockOn:
		return crawler.NewErrorRecord(domain, "https://"+domain+"/", "Blocked by robots.txt", now)
	case f.failOn:
		return crawler.NewErrorRecord(domain, "https://"+domain, "Connection refused", now)
	}
	return crawler.Record{
		Domain:     domain,
		URL:        "https://" + domain,
		Phones:     []string{},
		CrawledAt:  "2026-03-14T09:26:53.589Z",
		HTTPStatus: 200,
		Method:     "http",
	}
}

type memorySink struct {
	mu      sync.Mutex
	records []crawler.Record
}

func (s *memorySink) Write(rec crawler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) byDomain(domain string) *crawler.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].Domain == domain {
			return &s.records[i]
		}
	}
	return nil
}

type fakeIDs struct{}

func (fakeIDs) NewID() (string, error) { return "run-0001", nil }

type fakeStats struct{ size int }

func (f fakeStats) Stats() int { return f.size }

func domainList(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "site" + string(rune('a'+i)) + ".com"
	}
	return out
}

func TestRunEmitsOneRecordPerDomain(t *testing.T) {
	fetcher := &fakeFetcher{}
	sink := &memorySink{}
	o := New(fetcher, sink, fakeIDs{}, fakeStats{size: 3}, nil, 4, nil)

	s := o.Run(context.Background(), domainList(10))

	require.Len(t, sink.records, 10)
	require.Equal(t, "run-0001", s.RunID)
	require.Equal(t, 10, s.Domains)
	require.Equal(t, 10, s.Succeeded)
	require.Equal(t, 3, s.RobotsCacheSize)
}

func TestRunBoundsConcurrencyToChunkSize(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	sink := &memorySink{}
	o := New(fetcher, sink, nil, nil, nil, 3, nil)

	o.Run(context.Background(), domainList(9))

	require.LessOrEqual(t, fetcher.peak, 3)
	require.Len(t, sink.records, 9)
}

func TestRunCountsOutcomes(t *testing.T) {
	fetcher := &fakeFetcher{blockOn: "siteb.com", failOn: "sitec.com"}
	sink := &memorySink{}
	o := New(fetcher, sink, fakeIDs{}, nil, nil, 2, nil)

	s := o.Run(context.Background(), domainList(4))

	require.Equal(t, 2, s.Succeeded)
	require.Equal(t, 1, s.Blocked)
	require.Equal(t, 1, s.Failed)
}

func TestRunConvertsPanicIntoErrorRecord(t *testing.T) {
	fetcher := &fakeFetcher{panicOn: "siteb.com"}
	sink := &memorySink{}
	o := New(fetcher, sink, nil, nil, nil, 2, nil)

	s := o.Run(context.Background(), domainList(4))

	require.Len(t, sink.records, 4, "a panic must not swallow the domain's record")
	require.Equal(t, 1, s.Failed)

	rec := sink.byDomain("siteb.com")
	require.NotNil(t, rec)
	require.NotNil(t, rec.Error)
	require.True(t, strings.HasPrefix(*rec.Error, "Unexpected error: "))
	require.LessOrEqual(t, len(*rec.Error), 200)
	require.Equal(t, []string{}, rec.Phones)
	require.Equal(t, 0, rec.HTTPStatus)
}

func TestRunCancellationStopsNewChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{delay: 10 * time.Millisecond}
	sink := &memorySink{}
	o := New(fetcher, sink, nil, nil, nil, 2, nil)

	cancel()
	s := o.Run(ctx, domainList(6))

	require.Empty(t, sink.records, "no chunk dispatched after cancellation")
	require.Equal(t, 0, s.Succeeded)
}

func TestRunEmptyDomainList(t *testing.T) {
	sink := &memorySink{}
	o := New(&fakeFetcher{}, sink, fakeIDs{}, nil, nil, 5, nil)

	s := o.Run(context.Background(), nil)

	require.Empty(t, sink.records)
	require.Equal(t, 0, s.Domains)
}

func TestChunked(t *testing.T) {
	got := chunked([]string{"a", "b", "c", "d", "e"}, 2)
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, got)

	require.Nil(t, chunked(nil, 3))
	require.Equal(t, [][]string{{"a"}}, chunked([]string{"a"}, 10))
}
