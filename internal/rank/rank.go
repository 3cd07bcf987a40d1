// Package rank scores articles against query tokens and orders them by
// relevance.
package rank

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"newsbabel/internal/feed"
)

// Tunables, not contracts: a title hit must outweigh a snippet-only hit and
// ties break by recency.
const (
	titleWeight   = 5
	snippetWeight = 2
	minTokenLen   = 3
)

// Tokenize lower-cases the query, splits on anything that is not a letter or
// digit and drops tokens shorter than the minimum length. Duplicates are
// removed, first occurrence order is kept.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLen {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// Union merges token lists preserving order and dropping duplicates.
func Union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, tok := range list {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// Rank scores each article by matching every token as a case-insensitive
// literal substring of title and snippet. Zero-score articles are excluded;
// the rest are sorted by descending score, then descending publish time.
func Rank(articles []feed.Article, tokens []string) []feed.Article {
	if len(tokens) == 0 {
		return articles
	}

	patterns := make([]*regexp.Regexp, 0, len(tokens))
	for _, tok := range tokens {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(tok)))
	}

	type scored struct {
		article feed.Article
		score   int
	}
	matched := make([]scored, 0, len(articles))
	for _, a := range articles {
		score := 0
		for _, p := range patterns {
			if p.MatchString(a.Title) {
				score += titleWeight
			}
			if p.MatchString(a.Snippet) {
				score += snippetWeight
			}
		}
		if score > 0 {
			matched = append(matched, scored{article: a, score: score})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].article.PublishedAtMs > matched[j].article.PublishedAtMs
	})

	out := make([]feed.Article, 0, len(matched))
	for _, s := range matched {
		out = append(out, s.article)
	}
	return out
}
