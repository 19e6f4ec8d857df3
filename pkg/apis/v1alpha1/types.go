// Package v1alpha1 defines all Skua resource types.
package v1alpha1

import "time"

const (
	APIVersion = "skua.dev/v1alpha1"
)

// Resource kinds
const (
	KindAgent    = "Agent"
	KindTask     = "Task"
	KindThread   = "Thread"
	KindDocument = "Document"
)

// TypeMeta describes the API version and kind of a resource.
type TypeMeta struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`
}

// ObjectMeta holds metadata common to all resources.
type ObjectMeta struct {
	Name      string            `json:"name" yaml:"name"`
	Project   string            `json:"project,omitempty" yaml:"project,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	UID       string            `json:"uid,omitempty" yaml:"uid,omitempty"`
	CreatedAt time.Time         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// -------------------------------------------------------
// Agent
// -------------------------------------------------------

// Agent is a reusable agent profile: which model to talk to, how it is
// instructed, and which tools the loop may dispatch to.
type Agent struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     AgentSpec  `json:"spec" yaml:"spec"`
}

type AgentSpec struct {
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Model        string   `json:"model" yaml:"model"`
	SystemPrompt string   `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Tools        []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	// MaxLoopCalls bounds the number of model invocations per turn.
	// Zero means the configured default.
	MaxLoopCalls int     `json:"maxLoopCalls,omitempty" yaml:"maxLoopCalls,omitempty"`
	Temperature  float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// -------------------------------------------------------
// Task
// -------------------------------------------------------

// Task is a to-do item managed through the task-manager agent's tools.
type Task struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     TaskSpec   `json:"spec" yaml:"spec"`
	Status   TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

type TaskSpec struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	// DueDate is an ISO date string (YYYY-MM-DD), empty when absent.
	DueDate string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
}

type TaskStatus struct {
	Completed   bool      `json:"completed" yaml:"completed"`
	CompletedAt time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// -------------------------------------------------------
// Thread
// -------------------------------------------------------

// MessageRole is the author role of a single thread message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ThreadMessage is one entry in a thread's append-only transcript.
type ThreadMessage struct {
	Role      MessageRole `json:"role" yaml:"role"`
	Content   string      `json:"content" yaml:"content"`
	Timestamp time.Time   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// DefaultTopic marks a thread whose topic has not been generated yet.
const DefaultTopic = "New Chat"

// Thread is a chat conversation with an agent. Messages are only ever
// appended; the topic starts as DefaultTopic and is filled in by the
// thread-title controller after the first exchange.
type Thread struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta   `json:"metadata" yaml:"metadata"`
	Spec     ThreadSpec   `json:"spec" yaml:"spec"`
	Status   ThreadStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

type ThreadSpec struct {
	// Agent names the Agent profile driving this thread.
	Agent string `json:"agent,omitempty" yaml:"agent,omitempty"`
}

type ThreadStatus struct {
	Topic    string          `json:"topic,omitempty" yaml:"topic,omitempty"`
	Messages []ThreadMessage `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// -------------------------------------------------------
// Document
// -------------------------------------------------------

// DocumentPhase represents the indexing lifecycle of a Document.
type DocumentPhase string

const (
	DocPending  DocumentPhase = "Pending"
	DocIndexing DocumentPhase = "Indexing"
	DocIndexed  DocumentPhase = "Indexed"
	DocFailed   DocumentPhase = "Failed"
)

// Document is a retrieval source: raw text that the index controller
// chunks, embeds and makes searchable for the RAG agent.
type Document struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta     `json:"metadata" yaml:"metadata"`
	Spec     DocumentSpec   `json:"spec" yaml:"spec"`
	Status   DocumentStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

type DocumentSpec struct {
	// Source records where the content came from (file path or URL).
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Content string `json:"content" yaml:"content"`
}

type DocumentStatus struct {
	Phase     DocumentPhase `json:"phase" yaml:"phase"`
	Chunks    int           `json:"chunks" yaml:"chunks"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	IndexedAt time.Time     `json:"indexedAt,omitempty" yaml:"indexedAt,omitempty"`
}

// -------------------------------------------------------
// Watch types
// -------------------------------------------------------

// EventType represents the type of a watch event.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
)

// WatchEvent is emitted when a resource changes in the store.
type WatchEvent struct {
	Type   EventType
	Kind   string
	Key    string
	Object interface{}
}
