// Package client provides a Go client library for the Skua API server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// Client communicates with the Skua API server.
type Client struct {
	baseURL    string
	project    string
	httpClient *http.Client
}

// New creates a client pointing at the given base URL
// (e.g. "http://localhost:7311"), scoped to a project. An empty project
// means "default".
func New(baseURL, project string) *Client {
	if project == "" {
		project = "default"
	}
	return &Client{
		baseURL: baseURL,
		project: project,
		// Chat turns may chain several model calls.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (c *Client) path(p string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("project", c.project)
	return p + "?" + query.Encode()
}

func (c *Client) doJSON(method, path string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Healthz reports whether the server is reachable and healthy.
func (c *Client) Healthz() error {
	return c.doJSON(http.MethodGet, "/healthz", nil, nil)
}

// ---------------------------------------------------------------------------
// Agents
// ---------------------------------------------------------------------------

func (c *Client) ListAgents() ([]*v1alpha1.Agent, error) {
	var agents []*v1alpha1.Agent
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/agents", nil), nil, &agents)
	return agents, err
}

func (c *Client) GetAgent(name string) (*v1alpha1.Agent, error) {
	var agent v1alpha1.Agent
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/agents/"+name, nil), nil, &agent)
	return &agent, err
}

func (c *Client) DeleteAgent(name string) error {
	return c.doJSON(http.MethodDelete, c.path("/api/v1alpha1/agents/"+name, nil), nil, nil)
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func (c *Client) ListTasks() ([]*v1alpha1.Task, error) {
	var tasks []*v1alpha1.Task
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/tasks", nil), nil, &tasks)
	return tasks, err
}

func (c *Client) GetTask(name string) (*v1alpha1.Task, error) {
	var task v1alpha1.Task
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/tasks/"+name, nil), nil, &task)
	return &task, err
}

func (c *Client) CreateTask(task *v1alpha1.Task) (*v1alpha1.Task, error) {
	var created v1alpha1.Task
	err := c.doJSON(http.MethodPost, c.path("/api/v1alpha1/tasks", nil), task, &created)
	return &created, err
}

func (c *Client) UpdateTask(task *v1alpha1.Task) (*v1alpha1.Task, error) {
	var updated v1alpha1.Task
	err := c.doJSON(http.MethodPut, c.path("/api/v1alpha1/tasks/"+task.Metadata.Name, nil), task, &updated)
	return &updated, err
}

func (c *Client) DeleteTask(name string) error {
	return c.doJSON(http.MethodDelete, c.path("/api/v1alpha1/tasks/"+name, nil), nil, nil)
}

// ---------------------------------------------------------------------------
// Threads
// ---------------------------------------------------------------------------

func (c *Client) ListThreads() ([]*v1alpha1.Thread, error) {
	var threads []*v1alpha1.Thread
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/threads", nil), nil, &threads)
	return threads, err
}

func (c *Client) GetThread(name string) (*v1alpha1.Thread, error) {
	var thread v1alpha1.Thread
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/threads/"+name, nil), nil, &thread)
	return &thread, err
}

func (c *Client) CreateThread(thread *v1alpha1.Thread) (*v1alpha1.Thread, error) {
	var created v1alpha1.Thread
	err := c.doJSON(http.MethodPost, c.path("/api/v1alpha1/threads", nil), thread, &created)
	return &created, err
}

func (c *Client) DeleteThread(name string) error {
	return c.doJSON(http.MethodDelete, c.path("/api/v1alpha1/threads/"+name, nil), nil, nil)
}

// SendMessage runs one chat turn in a thread and returns the appended
// messages (the user message and the assistant reply).
func (c *Client) SendMessage(thread, content string) ([]v1alpha1.ThreadMessage, error) {
	var resp struct {
		Messages []v1alpha1.ThreadMessage `json:"messages"`
	}
	err := c.doJSON(http.MethodPost, c.path("/api/v1alpha1/threads/"+thread+"/messages", nil),
		map[string]string{"content": content}, &resp)
	return resp.Messages, err
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (c *Client) ListDocuments() ([]*v1alpha1.Document, error) {
	var docs []*v1alpha1.Document
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/documents", nil), nil, &docs)
	return docs, err
}

func (c *Client) GetDocument(name string) (*v1alpha1.Document, error) {
	var doc v1alpha1.Document
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/documents/"+name, nil), nil, &doc)
	return &doc, err
}

func (c *Client) DeleteDocument(name string) error {
	return c.doJSON(http.MethodDelete, c.path("/api/v1alpha1/documents/"+name, nil), nil, nil)
}

// ---------------------------------------------------------------------------
// Apply and query
// ---------------------------------------------------------------------------

// Apply creates or updates a resource server-side. The object must
// carry apiVersion, kind and metadata.name.
func (c *Client) Apply(obj interface{}) error {
	return c.doJSON(http.MethodPost, c.path("/api/v1alpha1/apply", nil), obj, nil)
}

// QueryAnswer is the response of Query.
type QueryAnswer struct {
	Answer  string `json:"answer"`
	Sources []struct {
		Document string  `json:"document"`
		Source   string  `json:"source,omitempty"`
		Score    float64 `json:"score"`
	} `json:"sources,omitempty"`
}

// Query asks the grounded document-answering endpoint.
func (c *Client) Query(question string) (*QueryAnswer, error) {
	query := url.Values{}
	query.Set("q", question)
	var answer QueryAnswer
	err := c.doJSON(http.MethodGet, c.path("/api/v1alpha1/query", query), nil, &answer)
	return &answer, err
}
