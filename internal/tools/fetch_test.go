package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchPageExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>skip</title><style>p{color:red}</style></head>
			<body><script>var x = 1;</script><h1>Heading</h1><p>Body text here.</p></body></html>`))
	}))
	defer srv.Close()

	tool := NewFetchTool(zap.NewNop())
	result := call(t, tool.Entry(), `{"url":"`+srv.URL+`"}`)

	text := result["text"].(string)
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "Body text here.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color:red")
	assert.Equal(t, false, result["truncated"])
}

func TestFetchPageTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("word ", 5000) + "</p></body></html>"))
	}))
	defer srv.Close()

	tool := NewFetchTool(zap.NewNop())
	result := call(t, tool.Entry(), `{"url":"`+srv.URL+`"}`)

	assert.Equal(t, true, result["truncated"])
	assert.LessOrEqual(t, len(result["text"].(string)), maxPageText)
}

func TestFetchPageRejectsBadInput(t *testing.T) {
	tool := NewFetchTool(zap.NewNop())

	_, err := tool.Entry().Handler(context.Background(), json.RawMessage(`{"url":"ftp://example.com"}`))
	assert.Error(t, err)

	_, err = tool.Entry().Handler(context.Background(), json.RawMessage(`{"url":""}`))
	assert.Error(t, err)
}

func TestFetchPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tool := NewFetchTool(zap.NewNop())
	_, err := tool.Entry().Handler(context.Background(), json.RawMessage(`{"url":"`+srv.URL+`"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
