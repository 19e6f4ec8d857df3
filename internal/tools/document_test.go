package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDraftUpdateAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "letter.md")
	draft := NewDraft(path)
	dt := NewDraftTools(draft, zap.NewNop())
	entries := dt.Entries()

	updated := call(t, entryByName(t, entries, "update_document"), `{"content":"Dear team,\n\nHello."}`)
	assert.Equal(t, true, updated["updated"])
	assert.Equal(t, "Dear team,\n\nHello.", draft.Content())
	assert.False(t, draft.Saved())

	saved := call(t, entryByName(t, entries, "save_document"), `{}`)
	assert.Equal(t, true, saved["saved"])
	assert.Equal(t, path, saved["path"])
	assert.True(t, draft.Saved())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Dear team,\n\nHello.", string(onDisk))
}

func TestDraftUpdateReplacesContent(t *testing.T) {
	draft := NewDraft(filepath.Join(t.TempDir(), "doc.md"))
	dt := NewDraftTools(draft, zap.NewNop())
	update := entryByName(t, dt.Entries(), "update_document")

	call(t, update, `{"content":"first version"}`)
	call(t, update, `{"content":"second version"}`)
	assert.Equal(t, "second version", draft.Content())
}

func TestDraftSaveTracksDirtyState(t *testing.T) {
	draft := NewDraft(filepath.Join(t.TempDir(), "doc.md"))
	dt := NewDraftTools(draft, zap.NewNop())
	entries := dt.Entries()

	call(t, entryByName(t, entries, "update_document"), `{"content":"v1"}`)
	call(t, entryByName(t, entries, "save_document"), `{}`)
	require.True(t, draft.Saved())

	// A new update marks the draft dirty again.
	call(t, entryByName(t, entries, "update_document"), `{"content":"v2"}`)
	assert.False(t, draft.Saved())
}

func TestDraftSaveEmptyFails(t *testing.T) {
	draft := NewDraft(filepath.Join(t.TempDir(), "doc.md"))
	dt := NewDraftTools(draft, zap.NewNop())
	save := entryByName(t, dt.Entries(), "save_document")

	_, err := save.Handler(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDraftUpdateEmptyFails(t *testing.T) {
	draft := NewDraft(filepath.Join(t.TempDir(), "doc.md"))
	dt := NewDraftTools(draft, zap.NewNop())
	update := entryByName(t, dt.Entries(), "update_document")

	_, err := update.Handler(context.Background(), json.RawMessage(`{"content":"  "}`))
	assert.Error(t, err)
}
