// Package dedupe collapses articles that are the same story fetched from
// different sources or under different link spellings.
package dedupe

import (
	"strings"
	"unicode"

	"newsbabel/internal/feed"
)

// Collapse keeps one representative per distinct story. Input is expected to
// be sorted by descending publish time, so first-seen wins means the most
// recent copy survives. An article collides when its normalized link OR its
// normalized title matches one already accepted; empty keys never match.
// Articles are dropped whole, never merged.
func Collapse(articles []feed.Article) []feed.Article {
	seenLinks := make(map[string]struct{}, len(articles))
	seenTitles := make(map[string]struct{}, len(articles))

	kept := make([]feed.Article, 0, len(articles))
	for _, a := range articles {
		linkKey := NormalizeLink(a.Link)
		titleKey := NormalizeTitle(a.Title)

		if linkKey != "" {
			if _, dup := seenLinks[linkKey]; dup {
				continue
			}
		}
		if titleKey != "" {
			if _, dup := seenTitles[titleKey]; dup {
				continue
			}
		}

		if linkKey != "" {
			seenLinks[linkKey] = struct{}{}
		}
		if titleKey != "" {
			seenTitles[titleKey] = struct{}{}
		}
		kept = append(kept, a)
	}
	return kept
}

// NormalizeLink lower-cases the URL and strips the scheme, a leading www.
// and a trailing slash.
func NormalizeLink(link string) string {
	s := strings.ToLower(strings.TrimSpace(link))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	return s
}

// NormalizeTitle lower-cases the title, keeps only letters, digits and
// whitespace (any script) and collapses runs of whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
