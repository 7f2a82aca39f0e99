// Package relevance decides which raw search results count as updates
// worth considering. The default classifier is a keyword heuristic;
// any replacement must stay a deterministic, side-effect-free function
// of title and snippet.
package relevance

import (
	"strings"

	"notify_agent/internal/model"
)

// Classifier reports whether a search result looks like a recent update.
type Classifier func(title, snippet string) bool

var recencyWords = []string{
	"today", "yesterday", "latest", "new", "updated",
	"announced", "released", "published",
}

var dateWords = []string{
	"2024", "2025",
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Keyword is the default heuristic classifier: an item qualifies if any
// recency word or any year/month token appears, case-insensitively, in
// its title or snippet.
func Keyword(title, snippet string) bool {
	text := strings.ToLower(title + " " + snippet)
	for _, w := range recencyWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	for _, w := range dateWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Filter returns the results the classifier accepts, preserving order.
func Filter(results []model.Update, classify Classifier) []model.Update {
	var candidates []model.Update
	for _, r := range results {
		if classify(r.Title, r.Snippet) {
			candidates = append(candidates, r)
		}
	}
	return candidates
}
