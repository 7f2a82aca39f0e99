package agent

import "strings"

var updateKeywords = []string{"update", "updates", "latest", "recent", "new", "changes"}

// fillerWords are stripped when reducing an update query to its topic.
var fillerWords = map[string]bool{
	"there": true, "is": true, "any": true, "update": true, "updates": true,
	"in": true, "on": true, "about": true, "latest": true, "recent": true, "new": true,
}

// IsUpdateQuery reports whether a query is asking about updates on a
// topic. A crude heuristic by contract: pure, deterministic, pluggable.
func IsUpdateQuery(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range updateKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// ExtractTopic reduces an update query to a topic by dropping filler
// words. Falls back to "general" when nothing remains.
func ExtractTopic(query string) string {
	var topic []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if !fillerWords[w] {
			topic = append(topic, w)
		}
	}
	if len(topic) == 0 {
		return "general"
	}
	return strings.Join(topic, " ")
}
