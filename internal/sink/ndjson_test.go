package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phidi/identity-crawler/internal/crawler"
)

func record(domain string) crawler.Record {
	return crawler.Record{
		Domain:     domain,
		URL:        "https://" + domain,
		Phones:     []string{},
		CrawledAt:  "2026-03-14T09:26:53.589Z",
		HTTPStatus: 200,
		Method:     "http",
	}
}

func TestNDJSONSinkWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewNDJSONSink(path, nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(record("a.com")))
	require.NoError(t, s.Write(record("b.com")))
	require.Equal(t, 2, s.Written())
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "a.com", first["domain"])
	require.Nil(t, first["company_name"])
	require.Nil(t, first["error"])
}

func TestNDJSONSinkFieldOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewNDJSONSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(record("a.com")))
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(raw)

	order := []string{
		`"domain"`, `"url"`, `"phones"`, `"company_name"`, `"facebook_url"`,
		`"linkedin_url"`, `"twitter_url"`, `"instagram_url"`, `"address"`,
		`"crawled_at"`, `"http_status"`, `"response_time_ms"`,
		`"page_size_bytes"`, `"method"`, `"error"`,
	}
	last := -1
	for _, key := range order {
		idx := strings.Index(line, key)
		require.Greater(t, idx, last, "field %s out of order", key)
		last = idx
	}
}

func TestNDJSONSinkCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "out.ndjson")
	s, err := NewNDJSONSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestNDJSONSinkConcurrentWritesDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewNDJSONSink(path, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Write(record("concurrent.example")))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj), "every line must be standalone JSON")
		count++
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, 50, count)
}
