// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"notify_agent/internal/model"
)

// Storage is the interface for all persistence operations of the
// notification memory. Three independent keyspaces back it: individually
// sent updates (keyed by fingerprint), the append-only notification
// history, and the idempotency ledger (keyed by idempotency key).
type Storage interface {
	// HasBeenSent reports whether an update with this fingerprint was
	// recorded for the topic within the trailing window. Older records
	// are treated as absent: the update may be notified again.
	HasBeenSent(ctx context.Context, fingerprint, topic string, window time.Duration) (bool, error)

	// RecordSent inserts one sent-update row, keyed by fingerprint.
	// Re-insertion of an existing fingerprint is a no-op, so concurrent
	// callers racing on the same update leave exactly one row.
	RecordSent(ctx context.Context, topic string, update model.Update, recipient string) error

	// RecordEvent appends one notification event, upserts the ledger row
	// for its idempotency key, and records each update as sent, all in a
	// single transaction. Returns the idempotency key used.
	RecordEvent(ctx context.Context, topic string, newUpdates []model.Update, recipient string) (string, error)

	RecentEvents(ctx context.Context, topic string, days int) ([]model.NotificationEvent, error)
	RecentSentUpdates(ctx context.Context, topic string, days int) ([]model.SentUpdate, error)
	Stats(ctx context.Context) (*model.Stats, error)

	// PurgeOlderThan deletes history and sent-update rows strictly older
	// than the cutoff; rows at exactly the cutoff survive. The ledger is
	// not touched.
	PurgeOlderThan(ctx context.Context, days int) error

	// ResetAll empties every table. For test and reset flows only.
	ResetAll(ctx context.Context) error

	Close() error
}
