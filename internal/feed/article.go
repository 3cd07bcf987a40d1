package feed

// Article is the canonical representation of one feed item. It is built once
// by the normalizer and never mutated afterwards; deduplication drops whole
// articles, it never merges fields between them.
type Article struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	SourceTitle string `json:"sourceTitle"`

	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	FullText string `json:"fullText"`

	Link     string `json:"link"`
	ImageURL string `json:"imageUrl,omitempty"`

	// PublishedAt is the RFC 3339 publish time, empty when the feed gave
	// none. PublishedAtMs is the same instant in epoch milliseconds and 0
	// when unknown; it is the universal sort and tie-break key, so undated
	// articles sort last in descending-recency order.
	PublishedAt   string `json:"publishedAt,omitempty"`
	PublishedAtMs int64  `json:"publishedAtMs"`

	// Display translations, filled by the orchestrator after ranking.
	TranslatedTitle   string `json:"translatedTitle,omitempty"`
	TranslatedSnippet string `json:"translatedSnippet,omitempty"`
}
