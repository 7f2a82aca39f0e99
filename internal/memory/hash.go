// Package memory implements the notification deduplication core:
// content fingerprints for updates and the partition of candidates
// into new versus already-sent within a trailing time window.
package memory

import (
	"crypto/md5" //nolint:gosec // non-adversarial lookup key, not a security boundary
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"notify_agent/internal/model"
)

// Fingerprint returns the stable content digest identifying an update.
// Identity is the trimmed title plus the trimmed URL; snippets are
// volatile and excluded on purpose. Missing fields hash as empty strings.
func Fingerprint(u model.Update) string {
	title := strings.TrimSpace(u.Title)
	url := strings.TrimSpace(u.URL)
	h := sha256.Sum256([]byte(title + "|" + url))
	return fmt.Sprintf("%x", h)
}

// keyInfo is the stable subset of an update used for event-level hashes.
type keyInfo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func sortedKeyInfo(updates []model.Update) []keyInfo {
	info := make([]keyInfo, 0, len(updates))
	for _, u := range updates {
		info = append(info, keyInfo{Title: u.Title, URL: u.URL})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Title < info[j].Title })
	return info
}

// NotificationHash returns a digest over the sorted (title, url) pairs
// of an event's updates. Used for human auditing of history rows; dedup
// decisions operate on individual update fingerprints, never on this.
func NotificationHash(updates []model.Update) string {
	data, _ := json.Marshal(sortedKeyInfo(updates))
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

// IdempotencyKey returns the ledger key for one notification event:
// a digest over the topic and the sorted (title, url) pairs. MD5 is
// fine here, the key is a lookup handle rather than a security boundary.
func IdempotencyKey(topic string, updates []model.Update) string {
	data, _ := json.Marshal(sortedKeyInfo(updates))
	h := md5.Sum([]byte(topic + ":" + string(data))) //nolint:gosec
	return fmt.Sprintf("%x", h)
}
