package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/singleflight"

	"newsbabel/internal/cache"
	"newsbabel/internal/logger"
	"newsbabel/internal/metrics"
	"newsbabel/internal/retry"
	"newsbabel/internal/sources"
)

// Some feeds 403 the default Go user agent.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// Fetcher loads feeds through a read-through cache, coalescing concurrent
// requests for the same URL into a single outbound call.
type Fetcher struct {
	client   *http.Client
	cache    *cache.Cache[[]Article]
	flight   singleflight.Group
	cacheTTL time.Duration
	timeout  time.Duration
	maxItems int
}

type FetcherOptions struct {
	CacheTTL       time.Duration
	Timeout        time.Duration
	ItemsPerSource int
}

func NewFetcher(feedCache *cache.Cache[[]Article], opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		cache:    feedCache,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
		maxItems: opts.ItemsPerSource,
	}
}

// FetchFeed returns the normalized articles of one source. A fetch that
// times out, fails, or cannot be parsed resolves to an empty list: one
// broken feed must never fail the aggregate request. Concurrent callers for
// the same URL share one underlying fetch.
func (f *Fetcher) FetchFeed(ctx context.Context, src sources.Source) []Article {
	if cached, ok := f.cache.Get(src.URL); ok {
		metrics.Global.IncrementFeedCacheHits()
		return cached
	}

	v, err, shared := f.flight.Do(src.URL, func() (interface{}, error) {
		articles, err := f.fetchOnce(ctx, src)
		if err != nil {
			return nil, err
		}
		f.cache.Set(src.URL, articles, f.cacheTTL)
		return articles, nil
	})
	if shared {
		metrics.Global.IncrementCoalescedFetches()
	}
	if err != nil {
		metrics.Global.IncrementFeedFetchErrors()
		logger.Warn("feed fetch failed", "source", src.Key, "url", src.URL, "error", err)
		return []Article{}
	}
	return v.([]Article)
}

func (f *Fetcher) fetchOnce(ctx context.Context, src sources.Source) ([]Article, error) {
	metrics.Global.IncrementFeedFetches()

	var parsed *gofeed.Feed
	err := retry.Do(ctx, 2, 500*time.Millisecond, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, src.URL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		parsed, err = gofeed.NewParser().Parse(resp.Body)
		if err != nil {
			return fmt.Errorf("parsing feed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := Normalize(src, parsed.Items, f.maxItems)
	logger.Debug("feed fetched", "source", src.Key, "items", len(parsed.Items), "kept", len(articles))
	return articles, nil
}

// FetchAll fetches every source concurrently and flattens the results.
// Order across sources is not guaranteed; callers sort afterwards.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []sources.Source) []Article {
	var (
		mu  sync.Mutex
		all []Article
		wg  sync.WaitGroup
	)

	for _, src := range srcs {
		wg.Add(1)
		go func(s sources.Source) {
			defer wg.Done()
			articles := f.FetchFeed(ctx, s)
			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return all
}

// InvalidateCache drops every cached feed result.
func (f *Fetcher) InvalidateCache() {
	f.cache.Clear()
}
