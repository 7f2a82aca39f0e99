package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"notify_agent/internal/model"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo searches via the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	client   HTTPClient
	endpoint string
}

// NewDuckDuckGo creates a DuckDuckGo provider with the given HTTP client.
func NewDuckDuckGo(client HTTPClient) *DuckDuckGo {
	return &DuckDuckGo{client: client, endpoint: duckDuckGoEndpoint}
}

// Search fetches and parses one page of results for the query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]model.Update, error) {
	reqURL := d.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []model.Update
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		link := sel.Find("a.result__a")
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		if title == "" && href == "" {
			return true
		}
		results = append(results, model.Update{
			Title:   title,
			URL:     resolveResultURL(href),
			Snippet: snippet,
		})
		return true
	})
	return results, nil
}

// resolveResultURL unwraps DuckDuckGo's redirect links, which carry the
// target in the uddg query parameter.
func resolveResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
