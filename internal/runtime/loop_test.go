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

// scriptedGateway replays a fixed sequence of assistant messages and
// records the histories it was called with.
type scriptedGateway struct {
	replies   []Message
	calls     int
	histories [][]Message
	systems   []string
}

func (g *scriptedGateway) Generate(ctx context.Context, system string, history []Message, tools []Spec) (Message, error) {
	g.systems = append(g.systems, system)
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	g.histories = append(g.histories, snapshot)

	if g.calls >= len(g.replies) {
		return Message{}, errors.New("script exhausted")
	}
	reply := g.replies[g.calls]
	g.calls++
	return reply, nil
}

func assistantText(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func assistantCalling(calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

func newTestLoop(t *testing.T, gw Gateway, cfg LoopConfig) *Loop {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(echoEntry()))
	return NewLoop(gw, r, cfg, zap.NewNop())
}

func TestRunTurnPlainAnswerHalts(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{assistantText("done")}}
	loop := newTestLoop(t, gw, LoopConfig{System: "be brief"})

	session := NewSession()
	require.NoError(t, loop.RunTurn(context.Background(), session, "hello"))

	// A reply without tool calls halts after exactly one gateway call.
	assert.Equal(t, 1, gw.calls)
	require.Len(t, session.History, 2)
	assert.Equal(t, RoleUser, session.History[0].Role)
	assert.Equal(t, "done", session.History[1].Content)
	assert.Equal(t, "be brief", gw.systems[0])
}

func TestRunTurnEchoScenario(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{
		assistantCalling(ToolCall{ID: "X", Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)}),
		assistantText("done"),
	}}
	loop := newTestLoop(t, gw, LoopConfig{})

	session := NewSession()
	require.NoError(t, loop.RunTurn(context.Background(), session, "hello"))

	// user, assistant-with-call, tool-result, assistant-final.
	require.Len(t, session.History, 4)
	assert.Equal(t, RoleUser, session.History[0].Role)
	assert.Equal(t, RoleAssistant, session.History[1].Role)
	assert.Equal(t, RoleTool, session.History[2].Role)
	assert.Equal(t, "X", session.History[2].ToolCallID)
	assert.Equal(t, "hi", session.History[2].Content)
	assert.Equal(t, "done", session.History[3].Content)

	// The second gateway call saw the observation appended.
	require.Len(t, gw.histories, 2)
	assert.Len(t, gw.histories[1], 3)
}

func TestRunTurnUnknownToolDoesNotHalt(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{
		assistantCalling(ToolCall{ID: "Y", Name: "delete_row", Arguments: json.RawMessage(`{}`)}),
		assistantText("recovered"),
	}}
	loop := newTestLoop(t, gw, LoopConfig{})

	session := NewSession()
	require.NoError(t, loop.RunTurn(context.Background(), session, "drop it"))

	// The error payload is an observation; the loop continues to the
	// next model step unaffected.
	require.Len(t, session.History, 4)
	assert.Equal(t, "Y", session.History[2].ToolCallID)
	assert.Contains(t, session.History[2].Content, "unknown tool")
	assert.Equal(t, "recovered", session.Last().Content)
}

func TestRunTurnGenerationErrorPropagates(t *testing.T) {
	genErr := errors.New("upstream 503")
	gw := GenerateFunc(func(ctx context.Context, system string, history []Message, tools []Spec) (Message, error) {
		return Message{}, errors.Join(ErrGeneration, genErr)
	})
	loop := newTestLoop(t, gw, LoopConfig{})

	session := NewSession()
	err := loop.RunTurn(context.Background(), session, "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	// Partial history survives: the user message is there.
	require.Len(t, session.History, 1)
	assert.Equal(t, RoleUser, session.History[0].Role)
}

func TestRunTurnLoopBound(t *testing.T) {
	// A model that never stops requesting tools.
	gw := GenerateFunc(func(ctx context.Context, system string, history []Message, tools []Spec) (Message, error) {
		return assistantCalling(ToolCall{ID: "Z", Name: "echo", Arguments: json.RawMessage(`{"text":"again"}`)}), nil
	})
	loop := newTestLoop(t, gw, LoopConfig{MaxCalls: 3})

	session := NewSession()
	err := loop.RunTurn(context.Background(), session, "go")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoopBound)
	assert.Equal(t, 3, session.Calls)
	// Partial history: user + 3 x (assistant, tool-result).
	assert.Len(t, session.History, 7)
}

func TestRunTurnResetsCallCount(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{
		assistantText("first"),
		assistantText("second"),
	}}
	loop := newTestLoop(t, gw, LoopConfig{MaxCalls: 1})

	session := NewSession()
	require.NoError(t, loop.RunTurn(context.Background(), session, "one"))
	// The budget is per turn, not per session.
	require.NoError(t, loop.RunTurn(context.Background(), session, "two"))
	assert.Len(t, session.History, 4)
}

func TestRunTurnContextCancelled(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{assistantText("never")}}
	loop := newTestLoop(t, gw, LoopConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewSession()
	err := loop.RunTurn(ctx, session, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToolResultCorrelation(t *testing.T) {
	gw := &scriptedGateway{replies: []Message{
		assistantCalling(
			ToolCall{ID: "a", Name: "echo", Arguments: json.RawMessage(`{"text":"1"}`)},
			ToolCall{ID: "b", Name: "echo", Arguments: json.RawMessage(`{"text":"2"}`)},
		),
		assistantText("done"),
	}}
	loop := newTestLoop(t, gw, LoopConfig{})

	session := NewSession()
	require.NoError(t, loop.RunTurn(context.Background(), session, "both"))

	// Every tool message's tag matches exactly one prior assistant call.
	requested := map[string]int{}
	for _, msg := range session.History {
		for _, call := range msg.ToolCalls {
			requested[call.ID]++
		}
	}
	for _, msg := range session.History {
		if msg.Role != RoleTool {
			continue
		}
		assert.Equal(t, 1, requested[msg.ToolCallID], "tool result %q must answer exactly one request", msg.ToolCallID)
	}
}
