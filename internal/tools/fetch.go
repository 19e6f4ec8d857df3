package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/skua-dev/skua/internal/runtime"
)

const (
	// maxPageBytes bounds how much of a response body is read.
	maxPageBytes = 1 << 20
	// maxPageText bounds the extracted text returned to the model.
	maxPageText = 8000
)

// FetchTool retrieves a web page and returns its visible text.
type FetchTool struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetchTool creates the fetch_page tool.
func NewFetchTool(logger *zap.Logger) *FetchTool {
	return &FetchTool{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Entry returns the fetch_page tool entry.
func (f *FetchTool) Entry() runtime.Entry {
	return runtime.Entry{
		Name:        "fetch_page",
		Description: "Fetch a web page by URL and return its visible text content, truncated to a readable length.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url": {Type: "string", Description: "Absolute http or https URL"},
			},
			Required: []string{"url"},
		},
		Handler: f.fetch,
	}
}

func (f *FetchTool) fetch(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "skua/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", in.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", in.URL, resp.StatusCode)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", in.URL, err)
	}

	truncated := false
	if len(text) > maxPageText {
		text = text[:maxPageText]
		truncated = true
	}

	f.logger.Debug("page fetched",
		zap.String("url", in.URL),
		zap.Int("textLen", len(text)),
		zap.Bool("truncated", truncated),
	)
	return marshalResult(map[string]interface{}{
		"url":       in.URL,
		"text":      text,
		"truncated": truncated,
	})
}

// extractText walks the HTML token stream collecting visible text,
// skipping script and style subtrees.
func extractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)
	var out strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return strings.TrimSpace(out.String()), nil
			}
			return "", tokenizer.Err()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if out.Len() > 0 {
				out.WriteString(" ")
			}
			out.WriteString(text)
		}
	}
}

func skippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}
