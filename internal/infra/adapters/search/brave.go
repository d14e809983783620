package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ai-search-stream/internal/domain/ports/adapter"
)

var _ adapter.SearchClient = (*BraveClient)(nil)

// BraveClient queries the Brave web search API.
// https://api.search.brave.com/app/documentation/web-search
type BraveClient struct {
	apiKey string
	base   string
	client *http.Client
}

func NewBraveClient(apiKey string) (*BraveClient, error) {
	if apiKey == "" {
		return nil, errors.New("brave: empty api key")
	}
	return &BraveClient{
		apiKey: apiKey,
		base:   "https://api.search.brave.com/res/v1",
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (b *BraveClient) Search(ctx context.Context, query string, k int) ([]adapter.SearchResult, error) {
	if k <= 0 {
		k = 3
	}
	u := fmt.Sprintf("%s/web/search?q=%s&count=%d", b.base, url.QueryEscape(query), k)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("brave http %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []adapter.SearchResult
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, adapter.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return out, nil
}
