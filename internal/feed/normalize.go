package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsbabel/internal/sources"
)

const (
	noTitle       = "(No Title)"
	noDescription = "(No Description)"

	maxFullTextRunes = 4000
	truncationMarker = "…"
)

// Normalize converts parsed feed items into canonical Articles. gofeed folds
// RSS 2.0 items and Atom entries into one item shape, so the per-field
// fallback chains below cover both dialects. A malformed field degrades to a
// default; a malformed item never drops the rest of the feed.
func Normalize(src sources.Source, items []*gofeed.Item, maxItems int) []Article {
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	articles := make([]Article, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		articles = append(articles, normalizeItem(src, item, i))
	}
	return articles
}

func normalizeItem(src sources.Source, item *gofeed.Item, index int) Article {
	title := stripHTML(item.Title)
	if title == "" {
		title = noTitle
	}

	// Snippet: description (gofeed maps Atom summary here), then a media
	// description, then the stripped content body.
	rawSnippet := item.Description
	if rawSnippet == "" {
		rawSnippet = mediaDescription(item)
	}
	if rawSnippet == "" {
		rawSnippet = item.Content
	}
	snippet := stripHTML(rawSnippet)
	if snippet == "" {
		snippet = noDescription
	}

	// Full text: content:encoded first, then whatever fed the snippet.
	rawFull := item.Content
	if rawFull == "" {
		rawFull = rawSnippet
	}
	fullText := capRunes(stripHTML(rawFull), maxFullTextRunes)
	if utf8.RuneCountInString(fullText) <= 3 {
		fullText = snippet
	}

	link := cleanLink(resolveLink(item))

	var publishedAt string
	var publishedMs int64
	if t := publishedTime(item); t != nil {
		publishedAt = t.UTC().Format(time.RFC3339)
		publishedMs = t.UnixMilli()
	}

	id := item.GUID
	if id == "" {
		id = link
	}
	if id == "" {
		id = fmt.Sprintf("%s-%d-%d", src.Key, publishedMs, index)
	}

	return Article{
		ID:            id,
		Source:        src.Key,
		SourceTitle:   src.Title,
		Title:         title,
		Snippet:       snippet,
		FullText:      fullText,
		Link:          link,
		ImageURL:      firstImage(item),
		PublishedAt:   publishedAt,
		PublishedAtMs: publishedMs,
	}
}

// resolveLink prefers the item's main link; gofeed already selects the HTML
// alternate for multi-link Atom entries, so the remaining fallback is the
// first link present.
func resolveLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}

// cleanLink drops query string and fragment so tracking parameters do not
// split one story into many.
func cleanLink(link string) string {
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[:i]
	}
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	return link
}

func publishedTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	return nil
}

// firstImage probes media:group thumbnails/content, then top-level media
// elements, then enclosures. Returns "" when no candidate carries a URL.
func firstImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, group := range media["group"] {
			for _, tag := range []string{"thumbnail", "content"} {
				for _, child := range group.Children[tag] {
					if u := child.Attrs["url"]; u != "" {
						return u
					}
				}
			}
		}
		for _, tag := range []string{"thumbnail", "content"} {
			for _, ext := range media[tag] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image") {
			return enc.URL
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}

func mediaDescription(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, desc := range media["description"] {
		if desc.Value != "" {
			return desc.Value
		}
	}
	for _, group := range media["group"] {
		for _, desc := range group.Children["description"] {
			if desc.Value != "" {
				return desc.Value
			}
		}
	}
	return ""
}

// stripHTML renders markup to plain text and collapses whitespace.
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseSpace(raw)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + truncationMarker
}
