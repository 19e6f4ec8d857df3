package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
)

// Draft is the working document of one drafting session. Each session
// owns its own Draft, so concurrent sessions never share state.
type Draft struct {
	mu      sync.Mutex
	content string
	path    string
	saved   bool
}

// NewDraft creates an empty draft that saves to the given path.
func NewDraft(path string) *Draft {
	return &Draft{path: path}
}

// Content returns the current draft text.
func (d *Draft) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// Saved reports whether the draft has been written to disk since its
// last modification.
func (d *Draft) Saved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saved
}

// Path returns the save destination.
func (d *Draft) Path() string {
	return d.path
}

func (d *Draft) set(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
	d.saved = false
}

func (d *Draft) save() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := os.WriteFile(d.path, []byte(d.content), 0o644); err != nil {
		return 0, err
	}
	d.saved = true
	return len(d.content), nil
}

// DraftTools exposes a Draft through the drafting vocabulary.
type DraftTools struct {
	draft  *Draft
	logger *zap.Logger
}

// NewDraftTools creates the update_document and save_document tools for
// one drafting session.
func NewDraftTools(draft *Draft, logger *zap.Logger) *DraftTools {
	return &DraftTools{draft: draft, logger: logger}
}

// Entries returns both drafting tools.
func (t *DraftTools) Entries() []runtime.Entry {
	return []runtime.Entry{
		{
			Name:        "update_document",
			Description: "Replace the draft document with new content. The full replacement text must be provided; the previous content is discarded.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"content": {Type: "string", Description: "The complete new document text"},
				},
				Required: []string{"content"},
			},
			Handler: t.update,
		},
		{
			Name:        "save_document",
			Description: "Save the current draft document to its file. Call this when the user asks to save or finish.",
			Parameters:  &jsonschema.Schema{Type: "object"},
			Handler:     t.save,
		},
	}
}

func (t *DraftTools) update(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Content) == "" {
		return "", fmt.Errorf("content must not be empty")
	}

	t.draft.set(in.Content)
	t.logger.Debug("draft updated", zap.Int("length", len(in.Content)))
	return marshalResult(map[string]interface{}{
		"updated": true,
		"length":  len(in.Content),
	})
}

func (t *DraftTools) save(_ context.Context, _ json.RawMessage) (string, error) {
	if strings.TrimSpace(t.draft.Content()) == "" {
		return "", fmt.Errorf("draft is empty; update_document before saving")
	}

	n, err := t.draft.save()
	if err != nil {
		return "", fmt.Errorf("saving draft to %s: %w", t.draft.Path(), err)
	}

	t.logger.Info("draft saved", zap.String("path", t.draft.Path()), zap.Int("bytes", n))
	return marshalResult(map[string]interface{}{
		"saved": true,
		"path":  t.draft.Path(),
		"bytes": n,
	})
}
