package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
)

// SearchResult is one hit from the search backend.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher performs a web search and returns ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTavilyClient creates a Tavily client. An empty baseURL defaults to
// the public endpoint.
func NewTavilyClient(baseURL, apiKey string, logger *zap.Logger) *TavilyClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &TavilyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

// Search queries Tavily and returns up to maxResults hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("search API key not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	raw, err := json.Marshal(tavilyRequest{APIKey: c.apiKey, Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	c.logger.Debug("web search completed",
		zap.String("query", query),
		zap.Int("results", len(parsed.Results)),
	)
	return parsed.Results, nil
}

// WebSearchTool exposes a Searcher as the web_search tool.
type WebSearchTool struct {
	searcher   Searcher
	maxResults int
}

// NewWebSearchTool creates the web_search tool. maxResults bounds the
// number of returned hits; zero means 5.
func NewWebSearchTool(searcher Searcher, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchTool{searcher: searcher, maxResults: maxResults}
}

// Entry returns the web_search tool entry.
func (w *WebSearchTool) Entry() runtime.Entry {
	return runtime.Entry{
		Name:        "web_search",
		Description: "Search the web for current information. Returns titles, URLs and content snippets for the top results.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Search query"},
			},
			Required: []string{"query"},
		},
		Handler: w.search,
	}
}

func (w *WebSearchTool) search(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	results, err := w.searcher.Search(ctx, in.Query, w.maxResults)
	if err != nil {
		return "", err
	}
	return marshalResult(map[string]interface{}{"results": results, "count": len(results)})
}
