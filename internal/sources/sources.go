// Package sources holds the registry of known feeds: short key, display
// title and feed URL.
package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Source struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// Registry is a fixed, ordered set of sources. It is built once at startup
// and read-only afterwards.
type Registry struct {
	ordered []Source
	byKey   map[string]Source
}

// Default returns the built-in world news registry.
func Default() *Registry {
	return NewRegistry([]Source{
		{Key: "bbc", Title: "BBC News", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
		{Key: "aljazeera", Title: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
		{Key: "jpost", Title: "Jerusalem Post", URL: "https://www.jpost.com/rss/rssfeedsfrontpage.aspx"},
		{Key: "timesofisrael", Title: "Times of Israel", URL: "https://www.timesofisrael.com/feed/"},
		{Key: "kyivindependent", Title: "Kyiv Independent", URL: "https://kyivindependent.com/feed/"},
		{Key: "guardian", Title: "Guardian World", URL: "https://www.theguardian.com/world/rss"},
		{Key: "ap", Title: "Associated Press", URL: "https://apnews.com/hub/ap-top-news?outputType=rss"},
		{Key: "dw", Title: "Deutsche Welle", URL: "https://rss.dw.com/rdf/rss-en-all"},
		{Key: "skynews", Title: "Sky News", URL: "https://feeds.skynews.com/feeds/rss/world.xml"},
	})
}

// NewRegistry builds a registry from a source list, skipping entries with a
// missing key or URL and keys seen twice.
func NewRegistry(list []Source) *Registry {
	r := &Registry{byKey: make(map[string]Source)}
	for _, s := range list {
		if s.Key == "" || s.URL == "" {
			continue
		}
		if _, dup := r.byKey[s.Key]; dup {
			continue
		}
		if s.Title == "" {
			s.Title = s.Key
		}
		r.byKey[s.Key] = s
		r.ordered = append(r.ordered, s)
	}
	return r
}

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg registryFile
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing sources config %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources config %s lists no sources", path)
	}
	return NewRegistry(cfg.Sources), nil
}

// Resolve returns the source registered under key.
func (r *Registry) Resolve(key string) (Source, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// All returns every source in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.ordered))
	for _, s := range r.ordered {
		keys = append(keys, s.Key)
	}
	return keys
}

// Len reports the number of registered sources.
func (r *Registry) Len() int {
	return len(r.ordered)
}
