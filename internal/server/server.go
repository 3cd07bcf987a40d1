// Package server exposes the aggregation pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"newsbabel/internal/cache"
	"newsbabel/internal/feed"
	"newsbabel/internal/logger"
	"newsbabel/internal/metrics"
	"newsbabel/internal/news"
	"newsbabel/internal/translate"
)

const (
	maxQueryRunes     = 200
	maxTranslateChars = 10000
)

type Server struct {
	echo       *echo.Echo
	news       *news.Service
	translator *translate.Service

	feedCache        *cache.Cache[[]feed.Article]
	translationCache *cache.Cache[string]

	startedAt time.Time
}

func New(newsSvc *news.Service, translator *translate.Service,
	feedCache *cache.Cache[[]feed.Article], translationCache *cache.Cache[string]) *Server {

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request",
				"method", v.Method, "uri", v.URI,
				"status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s := &Server{
		echo:             e,
		news:             newsSvc,
		translator:       translator,
		feedCache:        feedCache,
		translationCache: translationCache,
		startedAt:        time.Now(),
	}

	e.GET("/health", s.handleHealth)
	e.GET("/api/sources", s.handleSources)
	e.GET("/api/search", s.handleSearch)
	e.POST("/api/translate", s.handleTranslate)

	return s
}

func (s *Server) Start(addr string) error {
	logger.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type searchResponse struct {
	OK        bool           `json:"ok"`
	Articles  []feed.Article `json:"articles"`
	Count     int            `json:"count"`
	Total     int            `json:"total"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// handleSearch serves the aggregated article list. An internal fault never
// surfaces as a 5xx; the client gets an empty result it can render.
func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if utf8.RuneCountInString(query) > maxQueryRunes {
		query = string([]rune(query)[:maxQueryRunes])
	}

	opts := news.SearchOptions{
		ViewAll:      c.QueryParam("all") == "true" || c.QueryParam("all") == "1",
		ForceRefresh: c.QueryParam("refresh") == "true" || c.QueryParam("refresh") == "1",
	}

	resp := searchResponse{Articles: []feed.Article{}}
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("search handler panicked", "panic", r)
				metrics.Global.SetError("aggregation failed")
				resp = searchResponse{OK: false, Error: "aggregation failed", Articles: []feed.Article{}}
			}
		}()
		result := s.news.Search(c.Request().Context(), query, c.QueryParam("source"), opts)
		resp.OK = true
		resp.Articles = result.Articles
		resp.Count = len(result.Articles)
		resp.Total = result.Total
		if !result.UpdatedAt.IsZero() {
			resp.UpdatedAt = result.UpdatedAt.UTC().Format(time.RFC3339)
		}
	}()

	return c.JSON(http.StatusOK, resp)
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"ok": false, "error": "invalid request body",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"ok": false, "error": "text is required",
		})
	}
	if utf8.RuneCountInString(req.Text) > maxTranslateChars {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"ok": false, "error": "text too long",
		})
	}

	target := s.translator.AllowedLang(req.TargetLang)
	translated := s.translator.Translate(c.Request().Context(), req.Text, target)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok": true, "translated": translated, "targetLang": target,
	})
}

func (s *Server) handleSources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"sources": s.news.Registry().All(),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":               "ok",
		"uptimeSeconds":        int(time.Since(s.startedAt).Seconds()),
		"feedCacheSize":        s.feedCache.Len(),
		"translationCacheSize": s.translationCache.Len(),
		"stats":                metrics.Global.GetStats(),
	})
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
