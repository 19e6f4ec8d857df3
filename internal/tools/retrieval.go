package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/vector"
)

// Retriever is the slice of vector.Index the retrieval tool needs.
type Retriever interface {
	Search(ctx context.Context, project, query string, topK int) ([]vector.Result, error)
}

// RetrievalTool exposes the document index as a search_docs tool.
type RetrievalTool struct {
	index   Retriever
	project string
	topK    int
	logger  *zap.Logger
}

// NewRetrievalTool creates the search_docs tool. topK bounds the number
// of returned passages; zero means 3.
func NewRetrievalTool(index Retriever, project string, topK int, logger *zap.Logger) *RetrievalTool {
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalTool{index: index, project: project, topK: topK, logger: logger}
}

// Entry returns the search_docs tool entry.
func (r *RetrievalTool) Entry() runtime.Entry {
	return runtime.Entry{
		Name:        "search_docs",
		Description: "Search the ingested document collection for passages relevant to a query. Returns the most similar passages with their source documents.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Natural-language search query"},
			},
			Required: []string{"query"},
		},
		Handler: r.search,
	}
}

func (r *RetrievalTool) search(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	results, err := r.index.Search(ctx, r.project, in.Query, r.topK)
	if err != nil {
		return "", fmt.Errorf("searching documents: %w", err)
	}

	r.logger.Debug("document search",
		zap.String("query", in.Query),
		zap.Int("hits", len(results)),
	)

	type passage struct {
		Document string  `json:"document"`
		Source   string  `json:"source,omitempty"`
		Text     string  `json:"text"`
		Score    float64 `json:"score"`
	}
	passages := make([]passage, 0, len(results))
	for _, res := range results {
		passages = append(passages, passage(res))
	}
	return marshalResult(map[string]interface{}{"passages": passages, "count": len(passages)})
}
