package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"notify_agent/internal/model"
)

const newsFeedEndpoint = "https://news.google.com/rss/search"

const snippetMax = 300

// NewsFeed searches via the Google News RSS search endpoint. Useful as
// an alternative provider when HTML scraping is undesirable.
type NewsFeed struct {
	client   HTTPClient
	endpoint string
}

// NewNewsFeed creates a NewsFeed provider with the given HTTP client.
func NewNewsFeed(client HTTPClient) *NewsFeed {
	return &NewsFeed{client: client, endpoint: newsFeedEndpoint}
}

// Search fetches the news feed for the query and maps items to updates.
func (n *NewsFeed) Search(ctx context.Context, query string, maxResults int) ([]model.Update, error) {
	reqURL := n.endpoint + "?q=" + url.QueryEscape(query) + "&hl=en-US&gl=US&ceid=US:en"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var results []model.Update
	for _, item := range feed.Items {
		if len(results) >= maxResults {
			break
		}
		snippet := strings.TrimSpace(item.Description)
		if len(snippet) > snippetMax {
			snippet = snippet[:snippetMax] + "..."
		}
		results = append(results, model.Update{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: snippet,
		})
	}
	return results, nil
}
