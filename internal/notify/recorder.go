// Package notify implements the notification recorder: the single-pass
// decision of whether a topic's search results warrant a notification,
// and the atomic recording of what was notified.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notify_agent/internal/memory"
	"notify_agent/internal/model"
	"notify_agent/internal/relevance"
	"notify_agent/internal/storage"
)

// Recorder runs the decision pipeline: classify, partition against the
// store, record what is new, and build the digest content.
type Recorder struct {
	store     storage.Storage
	classify  relevance.Classifier
	recipient string
	window    time.Duration
	now       func() time.Time
}

// New creates a Recorder. A nil classifier falls back to the keyword
// heuristic; a zero window falls back to the default 24h.
func New(store storage.Storage, classify relevance.Classifier, recipient string, window time.Duration) *Recorder {
	if classify == nil {
		classify = relevance.Keyword
	}
	if window <= 0 {
		window = memory.DefaultWindow
	}
	if recipient == "" {
		recipient = "default"
	}
	return &Recorder{
		store:     store,
		classify:  classify,
		recipient: recipient,
		window:    window,
		now:       time.Now,
	}
}

// Decide classifies the search results for a topic, partitions the
// candidates into new versus already-sent within the dedup window, and
// records new ones. Storage failures are returned as errors, never
// reported as a "do not notify" decision: the caller must not mistake a
// failed duplicate check for a clean one. Everything else yields a
// Decision with a human-readable reasoning.
func (r *Recorder) Decide(ctx context.Context, topic string, results []model.Update) (*model.Decision, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return &model.Decision{
			ShouldNotify: false,
			Reasoning:    "no topic specified for update check",
			NewUpdates:   []model.Update{},
			AlreadySent:  []model.Update{},
		}, nil
	}

	candidates := relevance.Filter(results, r.classify)
	if len(candidates) == 0 {
		return &model.Decision{
			ShouldNotify: false,
			Reasoning:    "no relevant updates found",
			NewUpdates:   []model.Update{},
			AlreadySent:  []model.Update{},
		}, nil
	}

	newUpdates, alreadySent, err := memory.Partition(ctx, r.store, topic, candidates, r.window)
	if err != nil {
		return nil, fmt.Errorf("partition updates: %w", err)
	}

	if len(newUpdates) == 0 {
		return &model.Decision{
			ShouldNotify: false,
			Reasoning:    fmt.Sprintf("all %d updates for '%s' were already sent previously", len(alreadySent), topic),
			NewUpdates:   newUpdates,
			AlreadySent:  alreadySent,
			Email:        BuildEmail(topic, alreadySent, r.recipient, r.now()),
		}, nil
	}

	if _, err := r.store.RecordEvent(ctx, topic, newUpdates, r.recipient); err != nil {
		return nil, fmt.Errorf("record notification: %w", err)
	}

	return &model.Decision{
		ShouldNotify: true,
		Reasoning:    fmt.Sprintf("found %d new updates for '%s' (%d already sent)", len(newUpdates), topic, len(alreadySent)),
		NewUpdates:   newUpdates,
		AlreadySent:  alreadySent,
		Email:        BuildEmail(topic, newUpdates, r.recipient, r.now()),
	}, nil
}

// Window returns the dedup window the recorder queries with.
func (r *Recorder) Window() time.Duration {
	return r.window
}
