// Package search provides web-search providers that return candidate
// updates for a query. Providers are external collaborators: failures
// surface as wrapped errors for the caller to classify, never a crash.
package search

import (
	"context"
	"net/http"

	"notify_agent/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider performs a web search and maps results to updates.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Update, error)
}

const (
	userAgent    = "UpdateNotifyAgent/1.0"
	maxBodyBytes = 5 * 1024 * 1024
)
