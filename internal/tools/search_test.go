package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTavilySearch(t *testing.T) {
	var captured tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(tavilyResponse{Results: []SearchResult{
			{Title: "Go", URL: "https://go.dev", Content: "The Go programming language", Score: 0.97},
		}})
	}))
	defer srv.Close()

	client := NewTavilyClient(srv.URL, "tvly-test", zap.NewNop())
	results, err := client.Search(context.Background(), "golang", 3)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, "tvly-test", captured.APIKey)
	assert.Equal(t, "golang", captured.Query)
	assert.Equal(t, 3, captured.MaxResults)
}

func TestTavilySearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewTavilyClient(srv.URL, "bad-key", zap.NewNop())
	_, err := client.Search(context.Background(), "golang", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	// Missing key fails before any request.
	unconfigured := NewTavilyClient(srv.URL, "", zap.NewNop())
	_, err = unconfigured.Search(context.Background(), "golang", 3)
	assert.Error(t, err)
}

type fakeSearcher struct {
	results []SearchResult
	lastQ   string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]SearchResult, error) {
	f.lastQ = query
	return f.results, nil
}

func TestWebSearchTool(t *testing.T) {
	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "A", URL: "https://a.example", Content: "alpha"},
		{Title: "B", URL: "https://b.example", Content: "beta"},
	}}
	tool := NewWebSearchTool(searcher, 5)

	result := call(t, tool.Entry(), `{"query":"latest news"}`)
	assert.EqualValues(t, 2, result["count"])
	assert.Equal(t, "latest news", searcher.lastQ)

	_, err := tool.Entry().Handler(context.Background(), json.RawMessage(`{"query":""}`))
	assert.Error(t, err)
}
