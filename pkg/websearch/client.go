package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SearchItem is one ranked web result.
type SearchItem struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	ImageUrl string `json:"imageUrl,omitempty"`
}

// SearchResult carries the results plus the query actually sent and the
// provider-reported latency.
type SearchResult struct {
	Query        string       `json:"query"`
	SearchTimeMs int64        `json:"searchTimeMs"`
	Items        []SearchItem `json:"items"`
}

// Searcher is the contract for any web search backend.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

// HTTPSearcher calls a JSON search endpoint:
// GET {endpoint}?q=<query>&num=<max> with an X-API-Key header.
type HTTPSearcher struct {
	Endpoint   string
	APIKey     string
	MaxResults int
	Client     *http.Client
}

var _ Searcher = &HTTPSearcher{}

func NewHTTPSearcher(endpoint, apiKey string, maxResults int) *HTTPSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &HTTPSearcher{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		MaxResults: maxResults,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *HTTPSearcher) Search(ctx context.Context, query string) (*SearchResult, error) {
	started := time.Now()

	reqURL := fmt.Sprintf("%s?q=%s&num=%d", s.Endpoint, url.QueryEscape(query), s.MaxResults)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.APIKey != "" {
		req.Header.Set("X-API-Key", s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result SearchResult
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result.Query = query
	if result.SearchTimeMs == 0 {
		result.SearchTimeMs = time.Since(started).Milliseconds()
	}
	if len(result.Items) > s.MaxResults {
		result.Items = result.Items[:s.MaxResults]
	}

	return &result, nil
}
