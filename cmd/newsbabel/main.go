package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsbabel/internal/cache"
	"newsbabel/internal/config"
	"newsbabel/internal/feed"
	"newsbabel/internal/logger"
	"newsbabel/internal/news"
	"newsbabel/internal/server"
	"newsbabel/internal/sources"
	"newsbabel/internal/translate"
)

const sweepInterval = time.Minute

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	registry := sources.Default()
	if cfg.SourcesConfigPath != "" {
		loaded, err := sources.LoadFile(cfg.SourcesConfigPath)
		if err != nil {
			logger.Warn("sources config unusable, using built-in registry",
				"path", cfg.SourcesConfigPath, "error", err)
		} else {
			registry = loaded
		}
	}
	logger.Info("sources registered", "count", registry.Len())

	feedCache := cache.New[[]feed.Article](cfg.FeedCacheCap)
	feedCache.StartSweeper(sweepInterval)
	defer feedCache.Stop()

	translationCache := cache.New[string](cfg.TranslationCacheCap)
	translationCache.StartSweeper(sweepInterval)
	defer translationCache.Stop()

	translator := translate.NewService(translationCache, translate.Options{
		Workers:      cfg.MaxConcurrentTranslations,
		Timeout:      cfg.TranslateTimeout,
		CacheTTL:     cfg.TranslationCacheTTL,
		DefaultLang:  cfg.TargetLang,
		GeminiAPIKey: cfg.GeminiAPIKey,
		Budget:       translate.NewBudget(cfg.MaxTranslationBudget),
	})
	defer translator.Stop()

	fetcher := feed.NewFetcher(feedCache, feed.FetcherOptions{
		Timeout:        cfg.FeedTimeout,
		CacheTTL:       cfg.FeedCacheTTL,
		ItemsPerSource: cfg.ItemsPerSource,
	})

	newsSvc := news.NewService(registry, fetcher, translator, news.Options{
		TargetLang:   cfg.TargetLang,
		DefaultLimit: cfg.DefaultLimit,
		ViewAllLimit: cfg.ViewAllLimit,
	})

	srv := server.New(newsSvc, translator, feedCache, translationCache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	logger.Info("stopped")
}
