// Package tools provides the tool implementations the agent loop
// dispatches to: task management, document retrieval, web search, page
// fetching and draft editing. Each constructor returns runtime.Entry
// values ready for registration.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/store"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// TaskTools implements the task-manager vocabulary over the resource
// store. All tools operate within a single project.
type TaskTools struct {
	store   store.Store
	project string
	logger  *zap.Logger
}

// NewTaskTools creates task tools scoped to a project.
func NewTaskTools(s store.Store, project string, logger *zap.Logger) *TaskTools {
	return &TaskTools{store: s, project: project, logger: logger}
}

// Entries returns every task tool.
func (t *TaskTools) Entries() []runtime.Entry {
	return []runtime.Entry{
		{
			Name:        "add_task",
			Description: "Add a new task. Returns the created task including its name, which later calls use to reference it.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"title":       {Type: "string", Description: "Short task title"},
					"description": {Type: "string", Description: "Longer free-form details"},
					"category":    {Type: "string", Description: "Category label, e.g. work or personal"},
					"priority":    {Type: "string", Description: "One of low, medium, high"},
					"due_date":    {Type: "string", Description: "Due date as YYYY-MM-DD"},
				},
				Required: []string{"title"},
			},
			Handler: t.addTask,
		},
		{
			Name:        "list_tasks",
			Description: "List tasks, optionally filtered by category or completion state.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"category":          {Type: "string", Description: "Only tasks in this category"},
					"include_completed": {Type: "boolean", Description: "Include completed tasks (default false)"},
				},
			},
			Handler: t.listTasks,
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed by its name.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Task name as returned by add_task or list_tasks"},
				},
				Required: []string{"name"},
			},
			Handler: t.completeTask,
		},
		{
			Name:        "delete_task",
			Description: "Delete a task by its name.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Task name as returned by add_task or list_tasks"},
				},
				Required: []string{"name"},
			},
			Handler: t.deleteTask,
		},
		{
			Name:        "search_tasks",
			Description: "Search tasks by keyword across titles and descriptions.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Keyword to search for"},
				},
				Required: []string{"query"},
			},
			Handler: t.searchTasks,
		},
	}
}

// taskView is the observation shape returned to the model.
type taskView struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Completed   bool   `json:"completed"`
}

func viewOf(task *v1alpha1.Task) taskView {
	return taskView{
		Name:        task.Metadata.Name,
		Title:       task.Spec.Title,
		Description: task.Spec.Description,
		Category:    task.Spec.Category,
		Priority:    task.Spec.Priority,
		DueDate:     task.Spec.DueDate,
		Completed:   task.Status.Completed,
	}
}

func (t *TaskTools) addTask(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("title must not be empty")
	}
	if in.DueDate != "" {
		if _, err := time.Parse("2006-01-02", in.DueDate); err != nil {
			return "", fmt.Errorf("due_date must be YYYY-MM-DD: %w", err)
		}
	}

	now := time.Now()
	task := v1alpha1.Task{
		TypeMeta: v1alpha1.TypeMeta{APIVersion: v1alpha1.APIVersion, Kind: v1alpha1.KindTask},
		Metadata: v1alpha1.ObjectMeta{
			Name:      "task-" + uuid.NewString()[:8],
			Project:   t.project,
			UID:       uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Spec: v1alpha1.TaskSpec{
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Priority:    in.Priority,
			DueDate:     in.DueDate,
		},
	}

	key := store.ResourceKey(v1alpha1.KindTask, t.project, task.Metadata.Name)
	if err := t.store.Create(key, task); err != nil {
		return "", fmt.Errorf("storing task: %w", err)
	}

	t.logger.Info("task created", zap.String("name", task.Metadata.Name), zap.String("title", in.Title))
	return marshalResult(viewOf(&task))
}

func (t *TaskTools) listTasks(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Category         string `json:"category"`
		IncludeCompleted bool   `json:"include_completed"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	tasks, err := t.loadTasks()
	if err != nil {
		return "", err
	}

	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		if in.Category != "" && !strings.EqualFold(task.Spec.Category, in.Category) {
			continue
		}
		if task.Status.Completed && !in.IncludeCompleted {
			continue
		}
		views = append(views, viewOf(task))
	}
	return marshalResult(map[string]interface{}{"tasks": views, "count": len(views)})
}

func (t *TaskTools) completeTask(_ context.Context, args json.RawMessage) (string, error) {
	task, key, err := t.lookup(args)
	if err != nil {
		return "", err
	}
	if task.Status.Completed {
		return marshalResult(map[string]interface{}{"name": task.Metadata.Name, "already_completed": true})
	}

	task.Status.Completed = true
	task.Status.CompletedAt = time.Now()
	task.Metadata.UpdatedAt = task.Status.CompletedAt
	if err := t.store.Update(key, task); err != nil {
		return "", fmt.Errorf("updating task: %w", err)
	}

	t.logger.Info("task completed", zap.String("name", task.Metadata.Name))
	return marshalResult(viewOf(task))
}

func (t *TaskTools) deleteTask(_ context.Context, args json.RawMessage) (string, error) {
	task, key, err := t.lookup(args)
	if err != nil {
		return "", err
	}
	if err := t.store.Delete(key); err != nil {
		return "", fmt.Errorf("deleting task: %w", err)
	}

	t.logger.Info("task deleted", zap.String("name", task.Metadata.Name))
	return marshalResult(map[string]interface{}{"name": task.Metadata.Name, "deleted": true})
}

func (t *TaskTools) searchTasks(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	query := strings.ToLower(strings.TrimSpace(in.Query))
	if query == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	tasks, err := t.loadTasks()
	if err != nil {
		return "", err
	}

	var views []taskView
	for _, task := range tasks {
		haystack := strings.ToLower(task.Spec.Title + " " + task.Spec.Description)
		if strings.Contains(haystack, query) {
			views = append(views, viewOf(task))
		}
	}
	return marshalResult(map[string]interface{}{"tasks": views, "count": len(views)})
}

func (t *TaskTools) lookup(args json.RawMessage) (*v1alpha1.Task, string, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, "", fmt.Errorf("invalid arguments: %w", err)
	}
	if in.Name == "" {
		return nil, "", fmt.Errorf("name must not be empty")
	}

	key := store.ResourceKey(v1alpha1.KindTask, t.project, in.Name)
	var task v1alpha1.Task
	if err := t.store.Get(key, &task); err != nil {
		return nil, "", fmt.Errorf("task %s not found", in.Name)
	}
	return &task, key, nil
}

func (t *TaskTools) loadTasks() ([]*v1alpha1.Task, error) {
	raw, err := t.store.List(store.ProjectPrefix(v1alpha1.KindTask, t.project), func() interface{} {
		return &v1alpha1.Task{}
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	tasks := make([]*v1alpha1.Task, 0, len(raw))
	for _, r := range raw {
		tasks = append(tasks, r.(*v1alpha1.Task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Metadata.CreatedAt.Before(tasks[j].Metadata.CreatedAt)
	})
	return tasks, nil
}

func marshalResult(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(raw), nil
}
