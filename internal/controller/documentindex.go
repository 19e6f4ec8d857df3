package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/store"
	"github.com/skua-dev/skua/internal/vector"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// DocumentIndexController chunks and embeds Documents into the vector
// index. Phase moves Pending -> Indexing -> Indexed, or Failed with the
// error recorded in status.
type DocumentIndexController struct {
	store  store.Store
	index  *vector.Index
	logger *zap.Logger
}

// NewDocumentIndexController creates the indexing controller.
func NewDocumentIndexController(s store.Store, index *vector.Index, logger *zap.Logger) *DocumentIndexController {
	return &DocumentIndexController{store: s, index: index, logger: logger}
}

// Reconcile indexes a pending document, or clears chunks for a deleted
// one.
func (c *DocumentIndexController) Reconcile(ctx context.Context, key string) error {
	var doc v1alpha1.Document
	if err := c.store.Get(key, &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.cleanup(key)
		}
		return fmt.Errorf("getting document %q: %w", key, err)
	}

	switch doc.Status.Phase {
	case "", v1alpha1.DocPending:
		return c.indexDocument(ctx, key, &doc)
	case v1alpha1.DocIndexing, v1alpha1.DocIndexed, v1alpha1.DocFailed:
		// Indexing is single-shot; a failed document is retried only
		// when its spec is re-applied, which resets the phase.
		return nil
	default:
		c.logger.Warn("unknown document phase",
			zap.String("document", doc.Metadata.Name),
			zap.String("phase", string(doc.Status.Phase)),
		)
		return nil
	}
}

func (c *DocumentIndexController) indexDocument(ctx context.Context, key string, doc *v1alpha1.Document) error {
	doc.Status.Phase = v1alpha1.DocIndexing
	doc.Status.Error = ""
	if err := c.store.Update(key, doc); err != nil {
		return fmt.Errorf("marking %s indexing: %w", doc.Metadata.Name, err)
	}

	chunks, err := c.index.IndexDocument(ctx, doc)
	if err != nil {
		c.logger.Error("document indexing failed",
			zap.String("document", doc.Metadata.Name),
			zap.Error(err),
		)
		doc.Status.Phase = v1alpha1.DocFailed
		doc.Status.Error = err.Error()
		if uerr := c.store.Update(key, doc); uerr != nil {
			return fmt.Errorf("recording failure for %s: %w", doc.Metadata.Name, uerr)
		}
		// Status carries the failure; the queue does not retry because
		// embedding errors rarely resolve without a spec change.
		return nil
	}

	doc.Status.Phase = v1alpha1.DocIndexed
	doc.Status.Chunks = chunks
	doc.Status.IndexedAt = time.Now()
	if err := c.store.Update(key, doc); err != nil {
		return fmt.Errorf("marking %s indexed: %w", doc.Metadata.Name, err)
	}

	c.logger.Info("document indexed",
		zap.String("document", doc.Metadata.Name),
		zap.Int("chunks", chunks),
	)
	return nil
}

// cleanup drops the chunks of a deleted document.
func (c *DocumentIndexController) cleanup(key string) error {
	kind, project, name, err := store.SplitKey(key)
	if err != nil || kind != v1alpha1.KindDocument {
		return nil
	}
	if err := c.index.RemoveDocument(project, name); err != nil {
		return fmt.Errorf("removing chunks for deleted document %s: %w", name, err)
	}
	c.logger.Info("chunks removed for deleted document",
		zap.String("document", name),
		zap.String("project", project),
	)
	return nil
}
