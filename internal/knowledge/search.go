package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agentcore/core/internal/infra"
)

// SearXNGSearcher queries a self-hosted SearXNG instance's JSON API. It is
// the default Searcher backend, grounded on the teacher's websearch
// package's SearXNG integration. Concurrent calls for the same query+limit
// are coalesced into a single outbound request (§4.6: a Planner fanning out
// several sub-agents commonly issues the same SEARCH_WEB query twice).
type SearXNGSearcher struct {
	baseURL    string
	httpClient *http.Client
	inflight   infra.Group[string, []SearchResult]
}

// NewSearXNGSearcher builds a searcher against the given SearXNG base URL
// (e.g. "https://searx.example.com").
func NewSearXNGSearcher(baseURL string) *SearXNGSearcher {
	return &SearXNGSearcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search implements Searcher against the SearXNG JSON API, coalescing
// concurrent calls sharing the same query and result limit.
func (s *SearXNGSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	key := fmt.Sprintf("%d:%s", maxResults, query)
	results, err, _ := s.inflight.Do(key, func() ([]SearchResult, error) {
		return s.searchOnce(ctx, query, maxResults)
	})
	return results, err
}

func (s *SearXNGSearcher) searchOnce(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge: build search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("knowledge: search backend status %d", resp.StatusCode)
	}

	var parsed searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("knowledge: decode search response: %w", err)
	}

	results := make([]SearchResult, 0, maxResults)
	for i, r := range parsed.Results {
		if i >= maxResults {
			break
		}
		results = append(results, SearchResult{Title: r.Title, Snippet: r.Content, URL: r.URL})
	}
	return results, nil
}

// Search performs a web search, capped at maxResults, and degrades to a
// zero-value, Success:false response on any transport error rather than
// propagating it (§4.6).
func (a *Agent) Search(ctx context.Context, query string, maxResults int) SearchResponse {
	results, err := a.searcher.Search(ctx, query, maxResults)
	if err != nil {
		return SearchResponse{Query: query, Success: false}
	}
	return SearchResponse{Query: query, Results: results, Success: true}
}
