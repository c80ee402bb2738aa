package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twscraper/pkg/config"
	errs "twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/normalize"
	"twscraper/pkg/sink"
	"twscraper/pkg/timeline"
	"twscraper/pkg/twitter"
)

const newestID = int64(1013580140000000000)

// mockTimelineServer serves a descending run of ids with max_id paging
type mockTimelineServer struct {
	server    *httptest.Server
	total     int
	malformed map[int64]bool

	mu      sync.Mutex
	maxIDs  []string
	handles []string
}

func newMockTimelineServer(t *testing.T, total int) *mockTimelineServer {
	t.Helper()
	m := &mockTimelineServer{total: total, malformed: map[int64]bool{}}
	m.server = httptest.NewServer(m.handler())
	t.Cleanup(m.server.Close)
	return m
}

func newTLSMockTimelineServer(t *testing.T, total int) *mockTimelineServer {
	t.Helper()
	m := &mockTimelineServer{total: total, malformed: map[int64]bool{}}
	m.server = httptest.NewTLSServer(m.handler())
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockTimelineServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/statuses/user_timeline.json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		m.mu.Lock()
		m.maxIDs = append(m.maxIDs, q.Get("max_id"))
		m.handles = append(m.handles, q.Get("screen_name"))
		m.mu.Unlock()

		count, _ := strconv.Atoi(q.Get("count"))
		top := newestID
		if maxID := q.Get("max_id"); maxID != "" {
			top, _ = strconv.ParseInt(maxID, 10, 64)
		}

		page := []map[string]interface{}{}
		oldest := newestID - int64(m.total) + 1
		for id := top; id >= oldest && len(page) < count; id-- {
			page = append(page, m.tweet(id))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	return mux
}

func (m *mockTimelineServer) tweet(id int64) map[string]interface{} {
	n := newestID - id
	createdAt := time.Date(2018, 7, 1, 23, 4, 0, 0, time.UTC).Add(-time.Duration(n) * time.Minute)
	tweet := map[string]interface{}{
		"id":             id,
		"id_str":         strconv.FormatInt(id, 10),
		"created_at":     createdAt.Format(normalize.TimestampLayout),
		"full_text":      fmt.Sprintf("Update %d from orbit #ISS", n),
		"retweet_count":  int(n % 7),
		"favorite_count": int(n % 11),
		"source":         `<a href="https://www.sprinklr.com" rel="nofollow">Sprinklr</a>`,
		"entities": map[string]interface{}{
			"hashtags": []map[string]interface{}{{"text": "ISS"}},
			"urls":     []map[string]interface{}{{"url": "https://t.co/x", "expanded_url": "https://nasa.gov/" + strconv.FormatInt(n, 10)}},
		},
	}
	if m.malformed[id] {
		tweet["created_at"] = ""
	}
	return tweet
}

func (m *mockTimelineServer) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.maxIDs...)
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Account.Handle = "NASA"
	cfg.API.BaseURL = baseURL
	cfg.API.BearerToken = "test-token"
	cfg.RateLimit.Strategy = config.RateLimitNone
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Output.Directory = t.TempDir()
	return cfg
}

func TestRunWritesFullHistoryToCSV(t *testing.T) {
	server := newMockTimelineServer(t, 245)
	cfg := testConfig(t, server.server.URL)
	log := logger.NewTestLogger()

	s, err := New(cfg, log)
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "@NASA")
	require.NoError(t, err)

	assert.Equal(t, "NASA", result.Handle)
	assert.Equal(t, 245, result.Fetched)
	assert.Len(t, result.Posts, 245)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "NASA_tweets.csv"), result.Location)

	// newest page, one page below it, then the empty page
	calls := server.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "", calls[0])
	assert.Equal(t, strconv.FormatInt(newestID-200, 10), calls[1])
	assert.Equal(t, strconv.FormatInt(newestID-245, 10), calls[2])

	content, err := os.ReadFile(result.Location)
	require.NoError(t, err)
	assert.Equal(t, 246, bytes.Count(content, []byte("\n")))

	seen := make(map[int64]bool)
	for i, p := range result.Posts {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
		if i > 0 {
			assert.Less(t, p.ID, result.Posts[i-1].ID)
		}
	}

	first := result.Posts[0]
	assert.Equal(t, "Sprinklr", first.Source)
	assert.Equal(t, []string{"ISS"}, first.Hashtags)
	assert.Equal(t, []string{"https://nasa.gov/0"}, first.URLs)

	f, err := os.Open(result.Location)
	require.NoError(t, err)
	defer f.Close()
	fromCSV, err := sink.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, sink.ToDict(result.Posts), fromCSV)

	assert.True(t, log.HasMessage("Timeline collection finished"))

	var saved *logger.LogMessage
	for _, msg := range log.GetMessagesByLevel("INFO") {
		if msg.Message == "Posts saved" {
			saved = &msg
		}
	}
	require.NotNil(t, saved)
	assert.Equal(t, "https://twitter.com/NASA/status/"+strconv.FormatInt(newestID, 10), saved.Fields["newest"])
	assert.Equal(t, "https://twitter.com/NASA/status/"+strconv.FormatInt(newestID-244, 10), saved.Fields["oldest"])
}

func TestRunOverTLSWithCustomHTTPClient(t *testing.T) {
	server := newTLSMockTimelineServer(t, 45)
	cfg := testConfig(t, server.server.URL)

	client, err := twitter.NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	// the default client does not trust the test certificate
	_, err = NewWithFetcher(cfg, client, logger.NewNopLogger()).Run(context.Background(), "NASA")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeTransport))

	client.SetHTTPClient(server.server.Client())
	result, err := NewWithFetcher(cfg, client, logger.NewNopLogger()).Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Len(t, result.Posts, 45)
	assert.Equal(t, 45, result.Fetched)
}

func TestDictMatchesCollectedPosts(t *testing.T) {
	server := newMockTimelineServer(t, 30)
	cfg := testConfig(t, server.server.URL)
	cfg.Account.PageSize = 10

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	dict, err := s.Dict(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 30, dict.Len())

	keys := dict.Keys()
	assert.Equal(t, strconv.FormatInt(newestID, 10), keys[0])
	entry, ok := dict.Get(keys[29])
	require.True(t, ok)
	assert.Equal(t, "Update 29 from orbit #ISS", entry.Text)

	// 3 full pages and the empty one
	assert.Len(t, server.calls(), 4)
}

func TestRunWritesSQLite(t *testing.T) {
	server := newMockTimelineServer(t, 45)
	cfg := testConfig(t, server.server.URL)
	cfg.Output.Format = config.FormatSQLite

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "NASA_tweets.db"), result.Location)

	store, err := sink.OpenSQLite(context.Background(), result.Location)
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Equal(t, 45, count)
}

func TestRunWritesDictJSON(t *testing.T) {
	server := newMockTimelineServer(t, 5)
	cfg := testConfig(t, server.server.URL)
	cfg.Output.Format = config.FormatDict
	cfg.Output.Filename = "history.json"

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "history.json"), result.Location)

	content, err := os.ReadFile(result.Location)
	require.NoError(t, err)
	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Len(t, decoded, 5)
	assert.Equal(t, "Sprinklr", decoded[strconv.FormatInt(newestID, 10)]["source"])
}

func TestRunMalformedPostIsFatal(t *testing.T) {
	server := newMockTimelineServer(t, 10)
	server.malformed[newestID-3] = true
	cfg := testConfig(t, server.server.URL)

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "NASA")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedInput))
	assert.NoFileExists(t, cfg.OutputPath())
}

func TestRunSkipMalformed(t *testing.T) {
	server := newMockTimelineServer(t, 10)
	server.malformed[newestID-3] = true
	cfg := testConfig(t, server.server.URL)
	cfg.Output.SkipMalformed = true
	log := logger.NewTestLogger()

	s, err := New(cfg, log)
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Equal(t, 10, result.Fetched)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Posts, 9)
	assert.True(t, log.HasMessage("Skipping malformed post"))
}

func TestRunFetchFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	boom := errs.Transport(errors.New("connection reset"), "network error")

	calls := 0
	fetcher := timeline.FetcherFunc(func(ctx context.Context, handle string, pageSize int, maxID *int64) ([]normalize.RawPost, error) {
		calls++
		return nil, boom
	})

	s := NewWithFetcher(cfg, fetcher, logger.NewNopLogger())
	opened := false
	s.SetSinkOpener(func(ctx context.Context, cfg *config.Config) (sink.Sink, func() error, error) {
		opened = true
		return sink.Open(ctx, cfg)
	})

	_, err := s.Run(context.Background(), "NASA")
	assert.ErrorIs(t, err, boom)
	assert.True(t, errs.IsType(err, errs.ErrorTypeTransport))
	assert.Equal(t, 1, calls)
	assert.False(t, opened)
}

func TestRunEmptyTimeline(t *testing.T) {
	server := newMockTimelineServer(t, 0)
	cfg := testConfig(t, server.server.URL)

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	result, err := s.Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Empty(t, result.Posts)
	assert.Len(t, server.calls(), 1)

	content, err := os.ReadFile(result.Location)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(content, []byte("\n")))
}

func TestRunRequiresHandle(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	cfg.Account.Handle = ""
	s := NewWithFetcher(cfg, timeline.FetcherFunc(func(context.Context, string, int, *int64) ([]normalize.RawPost, error) {
		t.Fatal("no fetch expected")
		return nil, nil
	}), logger.NewNopLogger())

	_, err := s.Run(context.Background(), "")
	assert.Error(t, err)
}

func TestNewRequiresToken(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	cfg.API.BearerToken = ""

	_, err := New(cfg, logger.NewNopLogger())
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestRunCancelled(t *testing.T) {
	server := newMockTimelineServer(t, 10)
	cfg := testConfig(t, server.server.URL)

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx, "NASA")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.OutputPath())
}

func TestRunReportsPages(t *testing.T) {
	server := newMockTimelineServer(t, 25)
	cfg := testConfig(t, server.server.URL)
	cfg.Account.PageSize = 10

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	var totals []int
	s.OnPage(func(ev timeline.PageEvent) { totals = append(totals, ev.Total) })

	_, err = s.Run(context.Background(), "NASA")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 25}, totals)
}
