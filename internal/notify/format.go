package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"notify_agent/internal/model"
)

const snippetLimit = 200

// BuildEmail formats the digest subject and body for a set of updates.
// Content is only ever displayed or stored; nothing is transmitted.
func BuildEmail(topic string, updates []model.Update, recipient string, now time.Time) *model.EmailContent {
	if len(updates) == 0 {
		return &model.EmailContent{
			Subject: fmt.Sprintf("No new updates found for %s", topic),
			Body: fmt.Sprintf("Hello %s,\n\nNo new updates were found for the topic '%s' at this time.\n\nBest regards,\nUpdate Notify Agent",
				recipient, topic),
		}
	}

	plural := ""
	if len(updates) > 1 {
		plural = "s"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", recipient)
	fmt.Fprintf(&b, "We found %d new update%s on '%s' as of %s:\n\n",
		len(updates), plural, topic, now.Format("January 2, 2006 at 3:04 PM"))
	b.WriteString("Updates Summary:\n\n")

	for i, u := range updates {
		title := u.Title
		if title == "" {
			title = "No title available"
		}
		url := u.URL
		if url == "" {
			url = "No URL available"
		}
		snippet := u.Snippet
		if snippet == "" {
			snippet = "No description available"
		}
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}
		fmt.Fprintf(&b, "%d. %s\n   Link: %s\n   Summary: %s\n\n", i+1, title, url, snippet)
	}

	b.WriteString("---\n\nThis is an automated notification from Update Notify Agent.\n\nBest regards,\nUpdate Notify Agent")

	return &model.EmailContent{
		Subject: fmt.Sprintf("%d New Update%s on %s", len(updates), plural, titleCase(topic)),
		Body:    b.String(),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
