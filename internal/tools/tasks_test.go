package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/store"
)

func newTaskTools(t *testing.T) *TaskTools {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return NewTaskTools(s, "default", zap.NewNop())
}

func call(t *testing.T, entry runtime.Entry, args string) map[string]interface{} {
	t.Helper()
	out, err := entry.Handler(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

func entryByName(t *testing.T, entries []runtime.Entry, name string) runtime.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no entry named %s", name)
	return runtime.Entry{}
}

func TestAddAndListTasks(t *testing.T) {
	tt := newTaskTools(t)
	entries := tt.Entries()

	created := call(t, entryByName(t, entries, "add_task"),
		`{"title":"buy milk","category":"errands","priority":"high"}`)
	assert.Equal(t, "buy milk", created["title"])
	assert.NotEmpty(t, created["name"])
	assert.Equal(t, false, created["completed"])

	call(t, entryByName(t, entries, "add_task"), `{"title":"write report","category":"work"}`)

	listed := call(t, entryByName(t, entries, "list_tasks"), `{}`)
	assert.EqualValues(t, 2, listed["count"])

	filtered := call(t, entryByName(t, entries, "list_tasks"), `{"category":"work"}`)
	assert.EqualValues(t, 1, filtered["count"])
}

func TestAddTaskValidation(t *testing.T) {
	tt := newTaskTools(t)
	add := entryByName(t, tt.Entries(), "add_task")

	_, err := add.Handler(context.Background(), json.RawMessage(`{"title":"  "}`))
	assert.Error(t, err)

	_, err = add.Handler(context.Background(), json.RawMessage(`{"title":"x","due_date":"tomorrow"}`))
	assert.Error(t, err)

	_, err = add.Handler(context.Background(), json.RawMessage(`{"title":"x","due_date":"2026-09-01"}`))
	assert.NoError(t, err)
}

func TestCompleteTask(t *testing.T) {
	tt := newTaskTools(t)
	entries := tt.Entries()

	created := call(t, entryByName(t, entries, "add_task"), `{"title":"buy milk"}`)
	name := created["name"].(string)

	completed := call(t, entryByName(t, entries, "complete_task"), `{"name":"`+name+`"}`)
	assert.Equal(t, true, completed["completed"])

	// Completed tasks drop out of the default listing.
	listed := call(t, entryByName(t, entries, "list_tasks"), `{}`)
	assert.EqualValues(t, 0, listed["count"])

	all := call(t, entryByName(t, entries, "list_tasks"), `{"include_completed":true}`)
	assert.EqualValues(t, 1, all["count"])

	// Completing again is reported, not an error.
	again := call(t, entryByName(t, entries, "complete_task"), `{"name":"`+name+`"}`)
	assert.Equal(t, true, again["already_completed"])
}

func TestDeleteTask(t *testing.T) {
	tt := newTaskTools(t)
	entries := tt.Entries()

	created := call(t, entryByName(t, entries, "add_task"), `{"title":"buy milk"}`)
	name := created["name"].(string)

	deleted := call(t, entryByName(t, entries, "delete_task"), `{"name":"`+name+`"}`)
	assert.Equal(t, true, deleted["deleted"])

	_, err := entryByName(t, entries, "delete_task").Handler(
		context.Background(), json.RawMessage(`{"name":"`+name+`"}`))
	assert.Error(t, err)
}

func TestSearchTasks(t *testing.T) {
	tt := newTaskTools(t)
	entries := tt.Entries()

	call(t, entryByName(t, entries, "add_task"), `{"title":"buy milk","description":"from the corner shop"}`)
	call(t, entryByName(t, entries, "add_task"), `{"title":"write report"}`)

	found := call(t, entryByName(t, entries, "search_tasks"), `{"query":"corner shop"}`)
	assert.EqualValues(t, 1, found["count"])

	none := call(t, entryByName(t, entries, "search_tasks"), `{"query":"holiday"}`)
	assert.EqualValues(t, 0, none["count"])
}

func TestUnknownTaskName(t *testing.T) {
	tt := newTaskTools(t)
	complete := entryByName(t, tt.Entries(), "complete_task")

	_, err := complete.Handler(context.Background(), json.RawMessage(`{"name":"task-missing"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
