package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"notify_agent/internal/memory"
	"notify_agent/internal/model"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	s.now = func() time.Time { return baseTime }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countRows(t *testing.T, s *SQLite, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestHasBeenSentWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	u := model.Update{Title: "Budget 2025 announced today", URL: "http://a"}
	if err := s.RecordSent(ctx, "budget policy", u, "default"); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	fp := memory.Fingerprint(u)

	tests := []struct {
		name   string
		nowOff time.Duration
		window time.Duration
		topic  string
		want   bool
	}{
		{"inside window", 1 * time.Hour, 24 * time.Hour, "budget policy", true},
		{"at window edge", 24 * time.Hour, 24 * time.Hour, "budget policy", true},
		{"outside window re-admits", 25 * time.Hour, 24 * time.Hour, "budget policy", false},
		{"other topic is not sent", 1 * time.Hour, 24 * time.Hour, "tax policy", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = func() time.Time { return baseTime.Add(tt.nowOff) }
			got, err := s.HasBeenSent(ctx, fp, tt.topic, tt.window)
			if err != nil {
				t.Fatalf("has been sent: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasBeenSent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordSentIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	u := model.Update{Title: "Alpha", URL: "http://a", Snippet: "first crawl"}
	if err := s.RecordSent(ctx, "topic", u, "default"); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	// Same identity, different snippet: must be a no-op.
	u.Snippet = "second crawl"
	if err := s.RecordSent(ctx, "topic", u, "default"); err != nil {
		t.Fatalf("record sent again: %v", err)
	}

	if got := countRows(t, s, "sent_updates"); got != 1 {
		t.Fatalf("expected 1 sent_updates row, got %d", got)
	}

	updates, err := s.RecentSentUpdates(ctx, "topic", 7)
	if err != nil {
		t.Fatalf("recent sent updates: %v", err)
	}
	if len(updates) != 1 || updates[0].RawUpdate == "" {
		t.Fatalf("unexpected sent updates: %+v", updates)
	}
	// First insert wins.
	if updates[0].RawUpdate != `{"title":"Alpha","url":"http://a","snippet":"first crawl"}` {
		t.Errorf("raw update overwritten: %s", updates[0].RawUpdate)
	}
}

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	updates := []model.Update{
		{Title: "Alpha", URL: "http://a"},
		{Title: "Beta", URL: "http://b"},
	}

	key, err := s.RecordEvent(ctx, "topic", updates, "default")
	if err != nil {
		t.Fatalf("record event: %v", err)
	}
	if want := memory.IdempotencyKey("topic", updates); key != want {
		t.Errorf("idempotency key = %s, want %s", key, want)
	}

	if got := countRows(t, s, "notification_history"); got != 1 {
		t.Errorf("expected 1 history row, got %d", got)
	}
	if got := countRows(t, s, "sent_notifications"); got != 1 {
		t.Errorf("expected 1 ledger row, got %d", got)
	}
	if got := countRows(t, s, "sent_updates"); got != 2 {
		t.Errorf("expected 2 sent_updates rows, got %d", got)
	}

	// Recording the identical event again: history is append-only, the
	// ledger and the per-update rows are insert-if-absent.
	if _, err := s.RecordEvent(ctx, "topic", updates, "default"); err != nil {
		t.Fatalf("record event again: %v", err)
	}
	if got := countRows(t, s, "notification_history"); got != 2 {
		t.Errorf("expected 2 history rows, got %d", got)
	}
	if got := countRows(t, s, "sent_notifications"); got != 1 {
		t.Errorf("expected 1 ledger row after repeat, got %d", got)
	}
	if got := countRows(t, s, "sent_updates"); got != 2 {
		t.Errorf("expected 2 sent_updates rows after repeat, got %d", got)
	}
}

func TestRecordEventAtomicity(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	s.beforeUpdateInserts = func() error {
		return errors.New("injected failure")
	}

	_, err := s.RecordEvent(ctx, "topic", []model.Update{{Title: "Alpha", URL: "http://a"}}, "default")
	if err == nil {
		t.Fatal("expected injected failure")
	}

	// Nothing from the failed call may be visible.
	for _, table := range []string{"notification_history", "sent_notifications", "sent_updates"} {
		if got := countRows(t, s, table); got != 0 {
			t.Errorf("expected 0 rows in %s after rollback, got %d", table, got)
		}
	}

	// The store stays usable after the rollback.
	s.beforeUpdateInserts = nil
	if _, err := s.RecordEvent(ctx, "topic", []model.Update{{Title: "Alpha", URL: "http://a"}}, "default"); err != nil {
		t.Fatalf("record event after rollback: %v", err)
	}
	if got := countRows(t, s, "notification_history"); got != 1 {
		t.Errorf("expected 1 history row, got %d", got)
	}
}

func TestRecentEventsOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	times := []time.Time{
		baseTime.Add(-48 * time.Hour),
		baseTime.Add(-1 * time.Hour),
		baseTime,
	}
	for i, ts := range times {
		s.now = func() time.Time { return ts }
		u := model.Update{Title: string(rune('A' + i)), URL: "http://x"}
		if _, err := s.RecordEvent(ctx, "topic", []model.Update{u}, "default"); err != nil {
			t.Fatalf("record event %d: %v", i, err)
		}
	}
	// Different topic, must not appear.
	s.now = func() time.Time { return baseTime }
	if _, err := s.RecordEvent(ctx, "other", []model.Update{{Title: "Z", URL: "http://z"}}, "default"); err != nil {
		t.Fatalf("record other event: %v", err)
	}

	events, err := s.RecentEvents(ctx, "topic", 7)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].SentAt.After(events[i-1].SentAt) {
			t.Errorf("events not newest-first: %v before %v", events[i-1].SentAt, events[i].SentAt)
		}
	}

	// A one-day lookback excludes the 48h-old event.
	events, err = s.RecentEvents(ctx, "topic", 1)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events within 1 day, got %d", len(events))
	}
}

func TestRecentSentUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	u1 := model.Update{Title: "Alpha", URL: "http://a", Snippet: "s"}
	u2 := model.Update{Title: "Beta", URL: "http://b"}
	s.now = func() time.Time { return baseTime.Add(-2 * time.Hour) }
	if err := s.RecordSent(ctx, "topic", u1, "user"); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	s.now = func() time.Time { return baseTime }
	if err := s.RecordSent(ctx, "topic", u2, "user"); err != nil {
		t.Fatalf("record sent: %v", err)
	}

	got, err := s.RecentSentUpdates(ctx, "topic", 7)
	if err != nil {
		t.Fatalf("recent sent updates: %v", err)
	}
	want := []model.SentUpdate{
		{
			Fingerprint: memory.Fingerprint(u2),
			Topic:       "topic",
			Title:       "Beta",
			URL:         "http://b",
			SentAt:      baseTime,
			Recipient:   "user",
			RawUpdate:   `{"title":"Beta","url":"http://b","snippet":""}`,
		},
		{
			Fingerprint: memory.Fingerprint(u1),
			Topic:       "topic",
			Title:       "Alpha",
			URL:         "http://a",
			SentAt:      baseTime.Add(-2 * time.Hour),
			Recipient:   "user",
			RawUpdate:   `{"title":"Alpha","url":"http://a","snippet":"s"}`,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RecentSentUpdates mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	topics := []string{"tax policy", "budget policy", "ai research"}
	for i, topic := range topics {
		u := model.Update{Title: string(rune('A' + i)), URL: "http://x"}
		if _, err := s.RecordEvent(ctx, topic, []model.Update{u}, "default"); err != nil {
			t.Fatalf("record event for %s: %v", topic, err)
		}
	}

	got, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := &model.Stats{
		TotalEvents:      3,
		TotalSentUpdates: 3,
		EventsLast7Days:  3,
		EventsByTopic: map[string]int{
			"tax policy":    1,
			"budget policy": 1,
			"ai research":   1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestPurgeOlderThanBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	const days = 30
	cutoff := baseTime.AddDate(0, 0, -days)

	// One row strictly older than the cutoff, one exactly at it, one fresh.
	rows := []struct {
		at    time.Time
		title string
	}{
		{cutoff.Add(-time.Second), "stale"},
		{cutoff, "boundary"},
		{baseTime, "fresh"},
	}
	for _, r := range rows {
		at := r.at
		s.now = func() time.Time { return at }
		u := model.Update{Title: r.title, URL: "http://" + r.title}
		if _, err := s.RecordEvent(ctx, "topic", []model.Update{u}, "default"); err != nil {
			t.Fatalf("record %s: %v", r.title, err)
		}
	}

	s.now = func() time.Time { return baseTime }
	if err := s.PurgeOlderThan(ctx, days); err != nil {
		t.Fatalf("purge: %v", err)
	}

	// Strictly-older rows deleted, the row at the cutoff kept.
	if got := countRows(t, s, "notification_history"); got != 2 {
		t.Errorf("expected 2 history rows, got %d", got)
	}
	if got := countRows(t, s, "sent_updates"); got != 2 {
		t.Errorf("expected 2 sent_updates rows, got %d", got)
	}
	// The idempotency ledger is never purged.
	if got := countRows(t, s, "sent_notifications"); got != 3 {
		t.Errorf("expected 3 ledger rows, got %d", got)
	}

	updates, err := s.RecentSentUpdates(ctx, "topic", days+1)
	if err != nil {
		t.Fatalf("recent sent updates: %v", err)
	}
	for _, u := range updates {
		if u.Title == "stale" {
			t.Error("stale row survived the purge")
		}
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if _, err := s.RecordEvent(ctx, "topic", []model.Update{{Title: "A", URL: "http://a"}}, "default"); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := s.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, table := range []string{"notification_history", "sent_notifications", "sent_updates"} {
		if got := countRows(t, s, table); got != 0 {
			t.Errorf("expected 0 rows in %s after reset, got %d", table, got)
		}
	}
}

func TestFingerprintCollisionAcrossTopics(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	// The fingerprint is the sole storage key: inserting the same update
	// under a second topic is ignored, so the first topic's row survives.
	// The dedup decision is unaffected because HasBeenSent filters by
	// topic.
	u := model.Update{Title: "Shared headline", URL: "http://shared"}
	if err := s.RecordSent(ctx, "topic-a", u, "default"); err != nil {
		t.Fatalf("record under topic-a: %v", err)
	}
	if err := s.RecordSent(ctx, "topic-b", u, "default"); err != nil {
		t.Fatalf("record under topic-b: %v", err)
	}

	if got := countRows(t, s, "sent_updates"); got != 1 {
		t.Fatalf("expected 1 row, got %d", got)
	}
	sentA, err := s.HasBeenSent(ctx, memory.Fingerprint(u), "topic-a", 24*time.Hour)
	if err != nil {
		t.Fatalf("has been sent: %v", err)
	}
	if !sentA {
		t.Error("expected update to be sent under topic-a")
	}
	sentB, err := s.HasBeenSent(ctx, memory.Fingerprint(u), "topic-b", 24*time.Hour)
	if err != nil {
		t.Fatalf("has been sent: %v", err)
	}
	if sentB {
		t.Error("topic-b must not see topic-a's record")
	}
}
