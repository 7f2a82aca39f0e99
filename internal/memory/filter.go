package memory

import (
	"context"
	"fmt"
	"time"

	"notify_agent/internal/model"
)

// SentChecker is the slice of the storage layer the dedup filter needs.
type SentChecker interface {
	HasBeenSent(ctx context.Context, fingerprint, topic string, window time.Duration) (bool, error)
}

// DefaultWindow is the trailing duration within which a previously-sent
// update is still considered sent.
const DefaultWindow = 24 * time.Hour

// Partition splits candidates into new and already-sent updates for the
// given topic, consulting the store within the trailing window. Input
// order is preserved within each output list. An empty candidate list
// returns without touching storage.
//
// The guarantee: a (title, url) pair for a topic is classified new at
// most once per rolling window. The same pair under a different topic,
// or resurfacing after the window elapses, is eligible again.
func Partition(ctx context.Context, store SentChecker, topic string, candidates []model.Update, window time.Duration) (newUpdates, alreadySent []model.Update, err error) {
	if len(candidates) == 0 {
		return []model.Update{}, []model.Update{}, nil
	}

	newUpdates = []model.Update{}
	alreadySent = []model.Update{}
	for _, u := range candidates {
		sent, err := store.HasBeenSent(ctx, Fingerprint(u), topic, window)
		if err != nil {
			return nil, nil, fmt.Errorf("check sent: %w", err)
		}
		if sent {
			alreadySent = append(alreadySent, u)
		} else {
			newUpdates = append(newUpdates, u)
		}
	}
	return newUpdates, alreadySent, nil
}
