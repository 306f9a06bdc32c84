// Package index builds the in-memory inverted index over crawled pages.
package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopsage/crawler/internal/crawler"
)

// minTokenLen drops short noise tokens; only terms longer than this are
// indexed.
const minTokenLen = 3

// Posting records how many times a term occurred on a page.
type Posting struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Index maps a normalized term to its postings, sorted by count descending
// with insertion order breaking ties. Rebuilt wholesale on re-crawl; never
// mutated in place.
type Index map[string][]Posting

// Build constructs an Index from the crawl's page results. Failed pages
// contribute nothing. Pure function: identical input yields identical
// postings in identical order.
func Build(pages []crawler.PageResult) Index {
	idx := make(Index)
	for _, page := range pages {
		if page.Failed() {
			continue
		}
		tokens := Tokenize(page.Title + " " + page.Heading + " " + page.Text)
		if len(tokens) == 0 {
			continue
		}

		counts := make(map[string]int, len(tokens))
		var order []string
		for _, tok := range tokens {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
		for _, tok := range order {
			idx[tok] = append(idx[tok], Posting{URL: page.URL, Count: counts[tok]})
		}
	}

	for term := range idx {
		postings := idx[term]
		sort.SliceStable(postings, func(i, j int) bool {
			return postings[i].Count > postings[j].Count
		})
	}
	return idx
}

// Tokenize lowercases the text, treats every non-alphanumeric rune as a
// separator, and drops tokens of length <= 2.
func Tokenize(text string) []string {
	var tokens []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len(tok) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// NormalizeTerm applies the indexing casing/trim rule to a single query
// term.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
