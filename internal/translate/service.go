// Package translate serves machine translations through a bounded worker
// pool with cache-first memoization. Translation never fails the caller: any
// upstream problem resolves to the original text.
package translate

import (
	"context"
	"net/http"
	"sync"
	"time"

	"newsbabel/internal/cache"
	"newsbabel/internal/logger"
	"newsbabel/internal/metrics"
)

// DefaultLang is used when a caller supplies an unsupported target language.
const DefaultLang = "ru"

var allowedLangs = map[string]struct{}{
	"ru": {}, "en": {}, "uk": {}, "de": {}, "fr": {}, "es": {}, "it": {}, "pl": {},
}

type task struct {
	ctx    context.Context
	text   string
	target string
	result chan string
}

// Service memoizes translations and bounds concurrent outbound calls to the
// worker count, no matter how many callers are waiting.
type Service struct {
	cache    *cache.Cache[string]
	cacheTTL time.Duration

	client   *http.Client
	endpoint string
	timeout  time.Duration

	budget *Budget
	gemini *geminiFallback

	defaultLang string
	tasks       chan task
	done        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

type Options struct {
	Workers      int
	Timeout      time.Duration
	CacheTTL     time.Duration
	DefaultLang  string
	Endpoint     string // overridden in tests
	GeminiAPIKey string
	Budget       *Budget
}

func NewService(translationCache *cache.Cache[string], opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.DefaultLang == "" {
		opts.DefaultLang = DefaultLang
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.Budget == nil {
		opts.Budget = NewBudget(0)
	}

	s := &Service{
		cache:       translationCache,
		cacheTTL:    opts.CacheTTL,
		client:      &http.Client{Timeout: opts.Timeout},
		endpoint:    opts.Endpoint,
		timeout:     opts.Timeout,
		budget:      opts.Budget,
		defaultLang: opts.DefaultLang,
		tasks:       make(chan task, 1024),
		done:        make(chan struct{}),
	}

	if opts.GeminiAPIKey != "" {
		gemini, err := newGeminiFallback(context.Background(), opts.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini fallback unavailable", "error", err)
		} else {
			s.gemini = gemini
		}
	}

	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// AllowedLang validates a target language against the allow-list, falling
// back to the configured default.
func (s *Service) AllowedLang(lang string) string {
	if _, ok := allowedLangs[lang]; ok {
		return lang
	}
	return s.defaultLang
}

// DefaultTarget returns the language used when callers supply none.
func (s *Service) DefaultTarget() string {
	return s.defaultLang
}

// Translate returns text translated to targetLang. On a cache hit no network
// call is made; otherwise the request queues until one of the workers is
// free. Any failure, timeout or exhausted budget resolves to the input text.
func (s *Service) Translate(ctx context.Context, text, targetLang string) string {
	if text == "" {
		return ""
	}
	targetLang = s.AllowedLang(targetLang)

	key := targetLang + "|" + text
	if cached, ok := s.cache.Get(key); ok {
		metrics.Global.IncrementTranslationCacheHits()
		return cached
	}

	t := task{ctx: ctx, text: text, target: targetLang, result: make(chan string, 1)}
	select {
	case s.tasks <- t:
	case <-ctx.Done():
		return text
	case <-s.done:
		return text
	}

	select {
	case translated := <-t.result:
		return translated
	case <-ctx.Done():
		return text
	case <-s.done:
		return text
	}
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case t := <-s.tasks:
			t.result <- s.process(t)
		case <-s.done:
			return
		}
	}
}

func (s *Service) process(t task) string {
	if t.ctx.Err() != nil {
		return t.text
	}

	// A queued duplicate may have been resolved by an earlier task.
	key := t.target + "|" + t.text
	if cached, ok := s.cache.Get(key); ok {
		metrics.Global.IncrementTranslationCacheHits()
		return cached
	}

	if !s.budget.Allow() {
		logger.Warn("translation budget exhausted, returning original text")
		metrics.Global.IncrementFailedTranslations()
		return t.text
	}

	callCtx, cancel := context.WithTimeout(t.ctx, s.timeout)
	defer cancel()

	translated, err := s.googleTranslate(callCtx, t.text, t.target)
	if err != nil && s.gemini != nil {
		logger.Debug("free endpoint failed, trying gemini", "error", err)
		translated, err = s.gemini.translate(callCtx, t.text, t.target)
	}
	if err != nil || translated == "" {
		logger.Warn("translation failed", "target", t.target, "error", err)
		metrics.Global.IncrementFailedTranslations()
		return t.text
	}

	s.cache.Set(key, translated, s.cacheTTL)
	metrics.Global.IncrementSuccessfulTranslations()
	return translated
}

// Stop shuts the worker pool down. Queued tasks resolve to their original
// text through the callers' contexts.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.gemini != nil {
			s.gemini.close()
		}
	})
}
