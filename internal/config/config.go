// Package config loads service settings from the environment with typed defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Translation settings
	TargetLang                string
	MaxConcurrentTranslations int
	TranslateTimeout          time.Duration
	TranslationCacheTTL       time.Duration
	TranslationCacheCap       int
	MaxTranslationBudget      int // outbound translation calls per day (0 = unlimited)
	GeminiAPIKey              string

	// Feed settings
	SourcesConfigPath string
	FeedTimeout       time.Duration
	FeedCacheTTL      time.Duration
	FeedCacheCap      int
	ItemsPerSource    int

	// Search settings
	DefaultLimit int
	ViewAllLimit int

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                      "8000",
		TargetLang:                "ru",
		MaxConcurrentTranslations: 4,
		TranslateTimeout:          8 * time.Second,
		TranslationCacheTTL:       24 * time.Hour,
		TranslationCacheCap:       1000,
		MaxTranslationBudget:      0,
		FeedTimeout:               10 * time.Second,
		FeedCacheTTL:              5 * time.Minute,
		FeedCacheCap:              100,
		ItemsPerSource:            8,
		DefaultLimit:              60,
		ViewAllLimit:              200,
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.TargetLang = getEnvOrDefault("NEWS_TARGET_LANG", cfg.TargetLang)
	cfg.SourcesConfigPath = os.Getenv("SOURCES_CONFIG_PATH")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.MaxConcurrentTranslations = getEnvIntOrDefault("MAX_CONCURRENT_TRANSLATIONS", cfg.MaxConcurrentTranslations)
	cfg.TranslationCacheCap = getEnvIntOrDefault("TRANSLATION_CACHE_CAP", cfg.TranslationCacheCap)
	cfg.MaxTranslationBudget = getEnvIntOrDefault("MAX_TRANSLATION_BUDGET", cfg.MaxTranslationBudget)
	cfg.FeedCacheCap = getEnvIntOrDefault("FEED_CACHE_CAP", cfg.FeedCacheCap)
	cfg.ItemsPerSource = getEnvIntOrDefault("ITEMS_PER_SOURCE", cfg.ItemsPerSource)
	cfg.DefaultLimit = getEnvIntOrDefault("DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.ViewAllLimit = getEnvIntOrDefault("VIEW_ALL_LIMIT", cfg.ViewAllLimit)

	cfg.TranslateTimeout = getEnvDurationOrDefault("TRANSLATE_TIMEOUT", cfg.TranslateTimeout)
	cfg.TranslationCacheTTL = getEnvDurationOrDefault("TRANSLATION_CACHE_TTL", cfg.TranslationCacheTTL)
	cfg.FeedTimeout = getEnvDurationOrDefault("FEED_TIMEOUT", cfg.FeedTimeout)
	cfg.FeedCacheTTL = getEnvDurationOrDefault("FEED_CACHE_TTL", cfg.FeedCacheTTL)

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.MaxConcurrentTranslations < 1 {
		return fmt.Errorf("MAX_CONCURRENT_TRANSLATIONS must be at least 1")
	}
	if c.FeedCacheCap < 1 || c.TranslationCacheCap < 1 {
		return fmt.Errorf("cache capacities must be at least 1")
	}
	if c.DefaultLimit < 1 || c.ViewAllLimit < c.DefaultLimit {
		return fmt.Errorf("VIEW_ALL_LIMIT must be >= DEFAULT_LIMIT >= 1")
	}
	if c.ItemsPerSource < 1 {
		return fmt.Errorf("ITEMS_PER_SOURCE must be at least 1")
	}
	return nil
}
