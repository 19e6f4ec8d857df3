package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

func TestParseAgent(t *testing.T) {
	yaml := []byte(`
apiVersion: skua.dev/v1alpha1
kind: Agent
metadata:
  name: task-manager
  project: demo
spec:
  description: "Manages the user's task list"
  model: gpt-4.1-mini
  systemPrompt: "You manage the user's tasks."
  tools:
    - add_task
    - list_tasks
  maxLoopCalls: 6
`)
	resources, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(resources))
	}
	agent, ok := resources[0].(*v1alpha1.Agent)
	if !ok {
		t.Fatalf("expected *v1alpha1.Agent, got %T", resources[0])
	}
	if agent.Kind != v1alpha1.KindAgent {
		t.Errorf("expected kind Agent, got %s", agent.Kind)
	}
	if agent.Metadata.Name != "task-manager" {
		t.Errorf("expected name task-manager, got %s", agent.Metadata.Name)
	}
	if agent.Spec.Model != "gpt-4.1-mini" {
		t.Errorf("expected model gpt-4.1-mini, got %s", agent.Spec.Model)
	}
	if agent.Spec.Description != "Manages the user's task list" {
		t.Errorf("unexpected description: %q", agent.Spec.Description)
	}
	if len(agent.Spec.Tools) != 2 || agent.Spec.Tools[0] != "add_task" {
		t.Errorf("unexpected tools: %v", agent.Spec.Tools)
	}
	if agent.Spec.MaxLoopCalls != 6 {
		t.Errorf("expected maxLoopCalls 6, got %d", agent.Spec.MaxLoopCalls)
	}
}

func TestParseMultiDocument(t *testing.T) {
	yaml := []byte(`
apiVersion: skua.dev/v1alpha1
kind: Document
metadata:
  name: handbook
spec:
  source: handbook.md
  content: "Vacation policy."
---
apiVersion: skua.dev/v1alpha1
kind: Task
metadata:
  name: groceries
spec:
  title: "Buy groceries"
  priority: high
`)
	resources, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if _, ok := resources[0].(*v1alpha1.Document); !ok {
		t.Errorf("expected *v1alpha1.Document, got %T", resources[0])
	}
	task, ok := resources[1].(*v1alpha1.Task)
	if !ok {
		t.Fatalf("expected *v1alpha1.Task, got %T", resources[1])
	}
	if task.Spec.Title != "Buy groceries" {
		t.Errorf("expected title 'Buy groceries', got %s", task.Spec.Title)
	}
}

func TestParseDefaultsAPIVersion(t *testing.T) {
	yaml := []byte(`
kind: Thread
metadata:
  name: chat-1
`)
	resources, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	thread := resources[0].(*v1alpha1.Thread)
	if thread.APIVersion != v1alpha1.APIVersion {
		t.Errorf("expected default apiVersion, got %s", thread.APIVersion)
	}
}

func TestParseUnknownKind(t *testing.T) {
	_, err := ParseBytes([]byte("kind: Widget\nmetadata:\n  name: x\n"))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseMissingName(t *testing.T) {
	_, err := ParseBytes([]byte("kind: Task\nspec:\n  title: x\n"))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestParseSkipsEmptyDocuments(t *testing.T) {
	yaml := []byte("---\n---\nkind: Task\nmetadata:\n  name: t\nspec:\n  title: x\n")
	resources, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(resources))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	content := "kind: Task\nmetadata:\n  name: from-file\nspec:\n  title: x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	resources, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(resources))
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
