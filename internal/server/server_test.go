package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsbabel/internal/cache"
	"newsbabel/internal/feed"
	"newsbabel/internal/news"
	"newsbabel/internal/sources"
	"newsbabel/internal/translate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>First story</title><description>About things</description><link>https://t.example/1</link></item>
<item><title>Second story</title><description>About other things</description><link>https://t.example/2</link></item>
</channel></rss>`)
	}))
	t.Cleanup(feedSrv.Close)

	translateSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[["готово",""]]]`)
	}))
	t.Cleanup(translateSrv.Close)

	translationCache := cache.New[string](100)
	translator := translate.NewService(translationCache, translate.Options{
		Workers:  2,
		Timeout:  time.Second,
		Endpoint: translateSrv.URL,
	})
	t.Cleanup(translator.Stop)

	feedCache := cache.New[[]feed.Article](10)
	fetcher := feed.NewFetcher(feedCache, feed.FetcherOptions{
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
	})

	registry := sources.NewRegistry([]sources.Source{
		{Key: "t", Title: "Test Wire", URL: feedSrv.URL},
	})
	newsSvc := news.NewService(registry, fetcher, translator, news.Options{
		DefaultLimit: 10,
		ViewAllLimit: 20,
	})

	return New(newsSvc, translator, feedCache, translationCache)
}

func doJSON(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return rec, decoded
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodGet, "/api/search", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["ok"] != true {
		t.Errorf("ok = %v", body["ok"])
	}
	articles, _ := body["articles"].([]interface{})
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if body["count"] != float64(2) || body["total"] != float64(2) {
		t.Errorf("count/total = %v/%v", body["count"], body["total"])
	}
	first, _ := articles[0].(map[string]interface{})
	if first["title"] != "First story" {
		t.Errorf("first title = %v", first["title"])
	}
	if first["translatedTitle"] != "готово" {
		t.Errorf("translatedTitle = %v", first["translatedTitle"])
	}
	if _, ok := body["updatedAt"].(string); !ok {
		t.Errorf("updatedAt missing: %v", body["updatedAt"])
	}
}

func TestSearchEndpointWithQuery(t *testing.T) {
	s := newTestServer(t)
	_, body := doJSON(t, s, http.MethodGet, "/api/search?q=first", "")

	articles, _ := body["articles"].([]interface{})
	if len(articles) != 1 {
		t.Fatalf("query should narrow to 1 article, got %d", len(articles))
	}
	if body["total"] != float64(2) {
		t.Errorf("total should count pre-ranking stories, got %v", body["total"])
	}
}

func TestTranslateEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodPost, "/api/translate",
		`{"text":"hello","targetLang":"ru"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["translated"] != "готово" {
		t.Errorf("translated = %v", body["translated"])
	}
}

func TestTranslateEndpointRejectsMissingText(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodPost, "/api/translate", `{"targetLang":"ru"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body["ok"] != false {
		t.Errorf("ok = %v", body["ok"])
	}
}

func TestTranslateEndpointRejectsOversizedText(t *testing.T) {
	s := newTestServer(t)
	payload := fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", maxTranslateChars+1))
	rec, _ := doJSON(t, s, http.MethodPost, "/api/translate", payload)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranslateEndpointInvalidLangFallsBack(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodPost, "/api/translate",
		`{"text":"hello","targetLang":"nope"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["targetLang"] != "ru" {
		t.Errorf("targetLang = %v, want default ru", body["targetLang"])
	}
}

func TestSourcesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodGet, "/api/sources", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list, _ := body["sources"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("got %d sources", len(list))
	}
	src, _ := list[0].(map[string]interface{})
	if src["key"] != "t" || src["title"] != "Test Wire" {
		t.Errorf("source = %v", src)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	for _, key := range []string{"uptimeSeconds", "feedCacheSize", "translationCacheSize", "stats"} {
		if _, present := body[key]; !present {
			t.Errorf("health response missing %q", key)
		}
	}
}
