// Package model defines the domain types used across the application.
package model

import "time"

// Update represents a single search result treated as a potential update.
// Updates are value objects: two updates with the same trimmed title and
// URL are the same update, regardless of snippet text.
type Update struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SentUpdate is a persisted record of an individual update that was
// included in a notification. Rows are write-once: never updated, only
// deleted by the retention sweep.
type SentUpdate struct {
	Fingerprint string
	Topic       string
	Title       string
	URL         string
	SentAt      time.Time
	Recipient   string
	RawUpdate   string
}

// NotificationEvent is one append-only history row per decision that
// found at least one genuinely new update. Kept for auditing, not for
// dedup decisions.
type NotificationEvent struct {
	ID               int64
	Topic            string
	NotificationHash string
	SentAt           time.Time
	Recipient        string
	Payload          string
}

// EmailContent holds the formatted subject and body of a notification
// email. The system only formats content; it never sends mail.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Decision is the outcome of one notification check for a topic.
type Decision struct {
	ShouldNotify bool          `json:"should_notify"`
	Reasoning    string        `json:"reasoning"`
	NewUpdates   []Update      `json:"new_updates"`
	AlreadySent  []Update      `json:"already_sent_updates"`
	Email        *EmailContent `json:"email_content,omitempty"`
}

// Stats summarizes the contents of the notification store.
type Stats struct {
	TotalEvents      int
	TotalSentUpdates int
	EventsLast7Days  int
	EventsByTopic    map[string]int
}
