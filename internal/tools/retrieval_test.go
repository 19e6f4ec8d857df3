package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/vector"
)

type fakeRetriever struct {
	results []vector.Result
	err     error
	lastK   int
}

func (f *fakeRetriever) Search(_ context.Context, _, _ string, topK int) ([]vector.Result, error) {
	f.lastK = topK
	return f.results, f.err
}

func TestSearchDocs(t *testing.T) {
	retriever := &fakeRetriever{results: []vector.Result{
		{Document: "handbook", Source: "handbook.md", Text: "Vacation policy: 25 days.", Score: 0.91},
	}}
	tool := NewRetrievalTool(retriever, "default", 3, zap.NewNop())

	result := call(t, tool.Entry(), `{"query":"vacation days"}`)
	assert.EqualValues(t, 1, result["count"])
	assert.Equal(t, 3, retriever.lastK)

	passages := result["passages"].([]interface{})
	first := passages[0].(map[string]interface{})
	assert.Equal(t, "handbook", first["document"])
	assert.Contains(t, first["text"], "Vacation policy")
}

func TestSearchDocsEmptyCollection(t *testing.T) {
	tool := NewRetrievalTool(&fakeRetriever{}, "default", 3, zap.NewNop())

	result := call(t, tool.Entry(), `{"query":"anything"}`)
	assert.EqualValues(t, 0, result["count"])
}

func TestSearchDocsErrors(t *testing.T) {
	tool := NewRetrievalTool(&fakeRetriever{err: errors.New("index offline")}, "default", 3, zap.NewNop())

	_, err := tool.Entry().Handler(context.Background(), json.RawMessage(`{"query":"x"}`))
	assert.Error(t, err)

	_, err = tool.Entry().Handler(context.Background(), json.RawMessage(`{"query":"  "}`))
	assert.Error(t, err)
}

func TestRetrievalDefaultTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	tool := NewRetrievalTool(retriever, "default", 0, zap.NewNop())

	call(t, tool.Entry(), `{"query":"x"}`)
	assert.Equal(t, 3, retriever.lastK)
}
