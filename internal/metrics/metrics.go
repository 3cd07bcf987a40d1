// Package metrics keeps process-wide counters for the aggregation pipeline.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedFetches            int64
	FeedFetchErrors        int64
	FeedCacheHits          int64
	CoalescedFetches       int64
	DuplicatesFiltered     int64
	SuccessfulTranslations int64
	FailedTranslations     int64
	TranslationCacheHits   int64
	SearchesServed         int64

	// Status
	LastAggregation time.Time
	LastError       string
	LastErrorTime   time.Time
}

var Global = &Metrics{}

func (m *Metrics) IncrementFeedFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFetches++
}

func (m *Metrics) IncrementFeedFetchErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFetchErrors++
}

func (m *Metrics) IncrementFeedCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedCacheHits++
}

func (m *Metrics) IncrementCoalescedFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CoalescedFetches++
}

func (m *Metrics) AddDuplicatesFiltered(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += n
}

func (m *Metrics) IncrementSuccessfulTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulTranslations++
}

func (m *Metrics) IncrementFailedTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedTranslations++
}

func (m *Metrics) IncrementTranslationCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranslationCacheHits++
}

func (m *Metrics) IncrementSearchesServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchesServed++
}

func (m *Metrics) SetLastAggregation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastAggregation = time.Now()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feed_fetches":            m.FeedFetches,
		"feed_fetch_errors":       m.FeedFetchErrors,
		"feed_cache_hits":         m.FeedCacheHits,
		"coalesced_fetches":       m.CoalescedFetches,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"successful_translations": m.SuccessfulTranslations,
		"failed_translations":     m.FailedTranslations,
		"translation_cache_hits":  m.TranslationCacheHits,
		"searches_served":         m.SearchesServed,
		"last_aggregation":        m.LastAggregation.Format(time.RFC3339),
		"last_error":              m.LastError,
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
	}
}
