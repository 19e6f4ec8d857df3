// Package runtime implements the tool-calling control loop shared by
// every Skua agent: a registry of model-callable tools, a gateway to a
// text-generation backend, an executor that converts tool failures into
// observations, and the loop controller that alternates between the two
// until the model stops requesting tools.
package runtime

import (
	"encoding/json"
	"time"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to execute one registered tool.
// The ID is opaque and unique within the assistant message that carried
// it; it exists only to correlate the eventual tool result.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry in a conversation history. Assistant messages may
// carry tool calls; tool messages answer exactly one prior call via
// ToolCallID. The system instruction is never stored in the history --
// the gateway prepends it on every request.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Timestamp  time.Time  `json:"timestamp,omitempty"`
}

// UserMessage builds a user message with the current timestamp.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// toolResult builds the observation message answering the given call.
func toolResult(callID, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		Timestamp:  time.Now(),
	}
}

// errorPayload renders a structured error observation for the model.
// Tool failures are data, not control flow: the model reads the payload
// and reacts to it on the next turn.
func errorPayload(description string) string {
	raw, err := json.Marshal(map[string]string{"error": description})
	if err != nil {
		// map[string]string cannot fail to marshal; keep the fallback anyway.
		return `{"error":"tool execution failed"}`
	}
	return string(raw)
}
