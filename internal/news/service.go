// Package news composes the aggregation pipeline: fan-out fetch, dedupe,
// ranking and display translation.
package news

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsbabel/internal/dedupe"
	"newsbabel/internal/feed"
	"newsbabel/internal/logger"
	"newsbabel/internal/metrics"
	"newsbabel/internal/rank"
	"newsbabel/internal/sources"
	"newsbabel/internal/translate"
)

type Service struct {
	registry   *sources.Registry
	fetcher    *feed.Fetcher
	translator *translate.Service

	targetLang   string
	defaultLimit int
	viewAllLimit int

	mu        sync.Mutex
	updatedAt time.Time
}

type Options struct {
	TargetLang   string
	DefaultLimit int
	ViewAllLimit int
}

func NewService(registry *sources.Registry, fetcher *feed.Fetcher, translator *translate.Service, opts Options) *Service {
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = 60
	}
	if opts.ViewAllLimit < opts.DefaultLimit {
		opts.ViewAllLimit = opts.DefaultLimit
	}
	if opts.TargetLang == "" {
		opts.TargetLang = translator.DefaultTarget()
	}
	return &Service{
		registry:     registry,
		fetcher:      fetcher,
		translator:   translator,
		targetLang:   opts.TargetLang,
		defaultLimit: opts.DefaultLimit,
		viewAllLimit: opts.ViewAllLimit,
	}
}

type SearchOptions struct {
	ViewAll      bool
	ForceRefresh bool
	// SkipTranslation leaves the display translations empty. Used when the
	// caller renders originals only.
	SkipTranslation bool
}

type SearchResult struct {
	Articles []feed.Article
	// Total counts the distinct stories seen before ranking and truncation.
	Total     int
	UpdatedAt time.Time
}

// Search runs the full pipeline. A single valid source key narrows the fetch
// set; anything else means all known sources. The result is always a valid
// (possibly empty) list; upstream failures degrade per-source.
func (s *Service) Search(ctx context.Context, query, sourceKey string, opts SearchOptions) SearchResult {
	metrics.Global.IncrementSearchesServed()

	selected := s.registry.All()
	if src, ok := s.registry.Resolve(sourceKey); ok {
		selected = []sources.Source{src}
	}

	if opts.ForceRefresh {
		// Only feed results are invalidated; translations stay warm.
		s.fetcher.InvalidateCache()
	}

	articles := s.fetcher.FetchAll(ctx, selected)

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAtMs > articles[j].PublishedAtMs
	})

	before := len(articles)
	articles = dedupe.Collapse(articles)
	metrics.Global.AddDuplicatesFiltered(int64(before - len(articles)))
	total := len(articles)

	if query != "" {
		articles = rank.Rank(articles, s.queryTokens(ctx, query))
	}

	limit := s.defaultLimit
	if opts.ViewAll {
		limit = s.viewAllLimit
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}

	if !opts.SkipTranslation {
		s.translateForDisplay(ctx, articles)
	}

	s.mu.Lock()
	s.updatedAt = time.Now()
	updatedAt := s.updatedAt
	s.mu.Unlock()
	metrics.Global.SetLastAggregation()

	logger.Debug("search served",
		"query", query, "sources", len(selected),
		"fetched", before, "deduped", total, "returned", len(articles))

	return SearchResult{Articles: articles, Total: total, UpdatedAt: updatedAt}
}

// queryTokens joins the tokens of the query as given with the tokens of its
// English machine translation, so a Cyrillic query still matches
// English-language source text.
func (s *Service) queryTokens(ctx context.Context, query string) []string {
	original := rank.Tokenize(query)
	translated := rank.Tokenize(s.translator.Translate(ctx, query, "en"))
	return rank.Union(original, translated)
}

// translateForDisplay fills the translated title and snippet of each
// article. Calls run concurrently across articles; the translator's worker
// pool bounds the outbound concurrency.
func (s *Service) translateForDisplay(ctx context.Context, articles []feed.Article) {
	var wg sync.WaitGroup
	for i := range articles {
		wg.Add(1)
		go func(a *feed.Article) {
			defer wg.Done()
			a.TranslatedTitle = s.translator.Translate(ctx, a.Title, s.targetLang)
			a.TranslatedSnippet = s.translator.Translate(ctx, a.Snippet, s.targetLang)
		}(&articles[i])
	}
	wg.Wait()
}

// Registry exposes the source registry for the HTTP layer.
func (s *Service) Registry() *sources.Registry {
	return s.registry
}
