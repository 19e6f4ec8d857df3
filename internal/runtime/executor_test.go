package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testRegistry builds a registry with one healthy tool, one failing tool
// and one panicking tool.
func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	err := r.RegisterAll(
		echoEntry(),
		Entry{
			Name:        "flaky",
			Description: "Always fails.",
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				return "", errors.New("backend unavailable")
			},
		},
		Entry{
			Name:        "bomb",
			Description: "Always panics.",
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				panic("boom")
			},
		},
	)
	require.NoError(t, err)
	return r
}

// decodeError extracts the "error" field from an observation payload.
func decodeError(t *testing.T, content string) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(content), &payload))
	return payload["error"]
}

func TestExecuteBatchLengthAndOrder(t *testing.T) {
	ex := NewExecutor(testRegistry(t), zap.NewNop())

	calls := []ToolCall{
		{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"text":"one"}`)},
		{ID: "c2", Name: "flaky", Arguments: json.RawMessage(`{}`)},
		{ID: "c3", Name: "echo", Arguments: json.RawMessage(`{"text":"three"}`)},
	}

	results := ex.Execute(context.Background(), calls)

	// One result per request, same order, regardless of failures.
	require.Len(t, results, len(calls))
	for i, res := range results {
		assert.Equal(t, RoleTool, res.Role)
		assert.Equal(t, calls[i].ID, res.ToolCallID)
	}
	assert.Equal(t, "one", results[0].Content)
	assert.Equal(t, "backend unavailable", decodeError(t, results[1].Content))
	assert.Equal(t, "three", results[2].Content)
}

func TestExecuteUnknownTool(t *testing.T) {
	ex := NewExecutor(testRegistry(t), zap.NewNop())

	results := ex.Execute(context.Background(), []ToolCall{
		{ID: "y1", Name: "delete_row", Arguments: json.RawMessage(`{}`)},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "y1", results[0].ToolCallID)
	assert.Equal(t, "unknown tool delete_row", decodeError(t, results[0].Content))
}

func TestExecuteHandlerPanicContained(t *testing.T) {
	ex := NewExecutor(testRegistry(t), zap.NewNop())

	var results []Message
	require.NotPanics(t, func() {
		results = ex.Execute(context.Background(), []ToolCall{
			{ID: "p1", Name: "bomb", Arguments: json.RawMessage(`{}`)},
			{ID: "p2", Name: "echo", Arguments: json.RawMessage(`{"text":"still here"}`)},
		})
	})

	require.Len(t, results, 2)
	assert.Contains(t, decodeError(t, results[0].Content), "panicked")
	assert.Equal(t, "still here", results[1].Content)
}

func TestExecuteEmptyBatch(t *testing.T) {
	ex := NewExecutor(testRegistry(t), zap.NewNop())
	assert.Empty(t, ex.Execute(context.Background(), nil))
}
