package feed

import (
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"

	"newsbabel/internal/sources"
)

var testSource = sources.Source{Key: "test", Title: "Test Wire", URL: "https://test.example/rss"}

func parseFixture(t *testing.T, xml string) []*gofeed.Item {
	t.Helper()
	parsed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return parsed.Items
}

func TestNormalizeMinimalItemDefaults(t *testing.T) {
	items := parseFixture(t, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>Only a title</title></item>
</channel></rss>`)

	got := Normalize(testSource, items, 0)
	if len(got) != 1 {
		t.Fatalf("normalized %d articles, want 1", len(got))
	}
	a := got[0]
	if a.Title != "Only a title" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Snippet != "(No Description)" {
		t.Errorf("Snippet = %q, want (No Description)", a.Snippet)
	}
	if a.FullText != "(No Description)" {
		t.Errorf("FullText = %q, want snippet fallback", a.FullText)
	}
	if a.PublishedAtMs != 0 || a.PublishedAt != "" {
		t.Errorf("missing date should yield zero time, got %q / %d", a.PublishedAt, a.PublishedAtMs)
	}
	if a.ID == "" {
		t.Errorf("every article must get a non-empty id")
	}
	if a.Source != "test" || a.SourceTitle != "Test Wire" {
		t.Errorf("source fields = %q / %q", a.Source, a.SourceTitle)
	}
}

func TestNormalizeRSSItem(t *testing.T) {
	items := parseFixture(t, `<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel><title>t</title>
<item>
  <title>Storm &lt;b&gt;warning&lt;/b&gt; issued</title>
  <description>&lt;p&gt;Heavy rain expected&lt;/p&gt;</description>
  <content:encoded>&lt;p&gt;Heavy rain expected across the whole region tonight.&lt;/p&gt;</content:encoded>
  <link>https://test.example/storm?utm_source=rss#top</link>
  <guid>storm-123</guid>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
</channel></rss>`)

	got := Normalize(testSource, items, 0)
	if len(got) != 1 {
		t.Fatalf("normalized %d articles, want 1", len(got))
	}
	a := got[0]
	if a.Title != "Storm warning issued" {
		t.Errorf("Title = %q, want HTML stripped", a.Title)
	}
	if a.Snippet != "Heavy rain expected" {
		t.Errorf("Snippet = %q", a.Snippet)
	}
	if a.FullText != "Heavy rain expected across the whole region tonight." {
		t.Errorf("FullText = %q", a.FullText)
	}
	if a.Link != "https://test.example/storm" {
		t.Errorf("Link = %q, query and fragment should be stripped", a.Link)
	}
	if a.ID != "storm-123" {
		t.Errorf("ID = %q, want the feed guid", a.ID)
	}
	if a.PublishedAtMs != 1136214245000 {
		t.Errorf("PublishedAtMs = %d", a.PublishedAtMs)
	}
	if a.PublishedAt != "2006-01-02T15:04:05Z" {
		t.Errorf("PublishedAt = %q", a.PublishedAt)
	}
}

func TestNormalizeAtomEntry(t *testing.T) {
	items := parseFixture(t, `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>t</title>
  <entry>
    <title>Atom headline</title>
    <summary>Atom summary text</summary>
    <link rel="alternate" type="text/html" href="https://test.example/atom-story"/>
    <id>atom-1</id>
    <published>2024-03-01T10:00:00Z</published>
  </entry>
</feed>`)

	got := Normalize(testSource, items, 0)
	if len(got) != 1 {
		t.Fatalf("normalized %d articles, want 1", len(got))
	}
	a := got[0]
	if a.Snippet != "Atom summary text" {
		t.Errorf("Snippet = %q", a.Snippet)
	}
	if a.Link != "https://test.example/atom-story" {
		t.Errorf("Link = %q", a.Link)
	}
	if a.ID != "atom-1" {
		t.Errorf("ID = %q", a.ID)
	}
	if a.PublishedAtMs == 0 {
		t.Errorf("published time should parse")
	}
}

func TestNormalizeCapsFullText(t *testing.T) {
	long := strings.Repeat("a", 5000)
	a := normalizeItem(testSource, &gofeed.Item{Title: "t", Content: long}, 0)
	runes := []rune(a.FullText)
	if len(runes) != maxFullTextRunes+1 {
		t.Fatalf("FullText length = %d runes, want %d plus marker", len(runes), maxFullTextRunes)
	}
	if !strings.HasSuffix(a.FullText, truncationMarker) {
		t.Errorf("capped text should end with the truncation marker")
	}
}

func TestNormalizeTinyFullTextFallsBackToSnippet(t *testing.T) {
	a := normalizeItem(testSource, &gofeed.Item{
		Title:       "t",
		Description: "A useful snippet",
		Content:     "<p>ok</p>",
	}, 0)
	if a.FullText != "A useful snippet" {
		t.Errorf("FullText = %q, want snippet fallback for trivial content", a.FullText)
	}
}

func TestNormalizeItemLimit(t *testing.T) {
	items := make([]*gofeed.Item, 10)
	for i := range items {
		items[i] = &gofeed.Item{Title: "t"}
	}
	if got := Normalize(testSource, items, 3); len(got) != 3 {
		t.Errorf("kept %d items, want 3", len(got))
	}
}

func TestSyntheticIDsAreDistinct(t *testing.T) {
	items := []*gofeed.Item{{Title: "a"}, {Title: "b"}}
	got := Normalize(testSource, items, 0)
	if got[0].ID == got[1].ID {
		t.Errorf("synthetic ids must differ, both %q", got[0].ID)
	}
}

func TestFirstImageMediaThumbnail(t *testing.T) {
	items := parseFixture(t, `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel><title>t</title>
<item>
  <title>With image</title>
  <media:thumbnail url="https://img.example/a.jpg"/>
</item>
</channel></rss>`)

	got := Normalize(testSource, items, 0)
	if got[0].ImageURL != "https://img.example/a.jpg" {
		t.Errorf("ImageURL = %q", got[0].ImageURL)
	}
}

func TestFirstImageEnclosureFallback(t *testing.T) {
	a := normalizeItem(testSource, &gofeed.Item{
		Title: "t",
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://img.example/enc.png", Type: "image/png"},
		},
	}, 0)
	if a.ImageURL != "https://img.example/enc.png" {
		t.Errorf("ImageURL = %q", a.ImageURL)
	}
}

func TestFirstImageAbsent(t *testing.T) {
	a := normalizeItem(testSource, &gofeed.Item{Title: "t"}, 0)
	if a.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", a.ImageURL)
	}
}
