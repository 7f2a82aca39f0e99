package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"notify_agent/internal/memory"
	"notify_agent/internal/model"
	"notify_agent/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB

	// now is the clock used for cutoff arithmetic; overridable in tests.
	now func() time.Time

	// beforeUpdateInserts, when set, runs inside the RecordEvent
	// transaction between the history insert and the per-update inserts.
	// Used by tests to verify commit-or-rollback atomicity.
	beforeUpdateInserts func() error
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// HasBeenSent reports whether the fingerprint was recorded for the topic
// within the trailing window. The cutoff is computed here and bound as a
// parameter, never interpolated into the query text.
func (s *SQLite) HasBeenSent(ctx context.Context, fingerprint, topic string, window time.Duration) (bool, error) {
	cutoff := s.now().UTC().Add(-window).Format(timeLayout)
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sent_updates
		 WHERE update_hash = ? AND topic = ? AND sent_at >= ?
		 LIMIT 1`,
		fingerprint, topic, cutoff,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query sent update: %w", err)
	}
	return true, nil
}

// RecordSent inserts one sent-update row keyed by fingerprint.
// Existing fingerprints are left untouched.
func (s *SQLite) RecordSent(ctx context.Context, topic string, update model.Update, recipient string) error {
	raw, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	now := s.now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_updates (update_hash, topic, title, url, sent_at, recipient, raw_update)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		memory.Fingerprint(update), topic, update.Title, update.URL, now, recipient, string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert sent update: %w", err)
	}
	return nil
}

// RecordEvent appends one notification event and records its updates as
// sent, all inside one transaction: either every row for the call
// becomes visible or none do.
func (s *SQLite) RecordEvent(ctx context.Context, topic string, newUpdates []model.Update, recipient string) (string, error) {
	key := memory.IdempotencyKey(topic, newUpdates)
	hash := memory.NotificationHash(newUpdates)

	payload, err := json.Marshal(newUpdates)
	if err != nil {
		return "", fmt.Errorf("marshal event payload: %w", err)
	}
	raws := make([]string, len(newUpdates))
	for i, u := range newUpdates {
		raw, err := json.Marshal(u)
		if err != nil {
			return "", fmt.Errorf("marshal update: %w", err)
		}
		raws[i] = string(raw)
	}

	now := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_notifications (idempotency_key, topic, notification_hash, sent_at, recipient, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, topic, hash, now, recipient, string(payload),
	); err != nil {
		return "", fmt.Errorf("insert ledger row: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notification_history (topic, notification_hash, sent_at, recipient, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		topic, hash, now, recipient, string(payload),
	); err != nil {
		return "", fmt.Errorf("insert history row: %w", err)
	}

	if s.beforeUpdateInserts != nil {
		if err := s.beforeUpdateInserts(); err != nil {
			return "", err
		}
	}

	for i, u := range newUpdates {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sent_updates (update_hash, topic, title, url, sent_at, recipient, raw_update)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			memory.Fingerprint(u), topic, u.Title, u.URL, now, recipient, raws[i],
		); err != nil {
			return "", fmt.Errorf("insert sent update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit event: %w", err)
	}
	return key, nil
}

// RecentEvents returns history rows for a topic newer than the cutoff,
// newest first.
func (s *SQLite) RecentEvents(ctx context.Context, topic string, days int) ([]model.NotificationEvent, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, notification_hash, sent_at, recipient, payload
		 FROM notification_history
		 WHERE topic = ? AND sent_at >= ?
		 ORDER BY sent_at DESC, id DESC`,
		topic, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.NotificationEvent
	for rows.Next() {
		var e model.NotificationEvent
		var sentAt string
		if err := rows.Scan(&e.ID, &e.Topic, &e.NotificationHash, &sentAt, &e.Recipient, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.SentAt, _ = time.Parse(timeLayout, sentAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentSentUpdates returns individually sent updates for a topic newer
// than the cutoff, newest first.
func (s *SQLite) RecentSentUpdates(ctx context.Context, topic string, days int) ([]model.SentUpdate, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT update_hash, topic, title, url, sent_at, recipient, raw_update
		 FROM sent_updates
		 WHERE topic = ? AND sent_at >= ?
		 ORDER BY sent_at DESC`,
		topic, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query sent updates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var updates []model.SentUpdate
	for rows.Next() {
		var u model.SentUpdate
		var sentAt string
		if err := rows.Scan(&u.Fingerprint, &u.Topic, &u.Title, &u.URL, &sentAt, &u.Recipient, &u.RawUpdate); err != nil {
			return nil, fmt.Errorf("scan sent update: %w", err)
		}
		u.SentAt, _ = time.Parse(timeLayout, sentAt)
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// Stats summarizes the store contents.
func (s *SQLite) Stats(ctx context.Context) (*model.Stats, error) {
	st := &model.Stats{EventsByTopic: map[string]int{}}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_history`,
	).Scan(&st.TotalEvents); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_updates`,
	).Scan(&st.TotalSentUpdates); err != nil {
		return nil, fmt.Errorf("count sent updates: %w", err)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -7).Format(timeLayout)
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_history WHERE sent_at >= ?`, cutoff,
	).Scan(&st.EventsLast7Days); err != nil {
		return nil, fmt.Errorf("count recent events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT topic, COUNT(*) FROM notification_history GROUP BY topic`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by topic: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var topic string
		var count int
		if err := rows.Scan(&topic, &count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		st.EventsByTopic[topic] = count
	}
	return st, rows.Err()
}

// PurgeOlderThan deletes history and sent-update rows strictly older
// than the cutoff. Rows at exactly the cutoff are kept. The idempotency
// ledger is not touched.
func (s *SQLite) PurgeOlderThan(ctx context.Context, days int) error {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM notification_history WHERE sent_at < ?`, cutoff,
	); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sent_updates WHERE sent_at < ?`, cutoff,
	); err != nil {
		return fmt.Errorf("purge sent updates: %w", err)
	}
	return tx.Commit()
}

// ResetAll empties every table. For test and reset flows only.
func (s *SQLite) ResetAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"sent_notifications", "notification_history", "sent_updates"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}
