// Package vector implements the embedding index backing document
// retrieval. Chunks live in the resource store under the Chunk kind,
// so the index shares persistence (and watchability) with every other
// resource.
package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/store"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// KindChunk is the store kind for persisted chunk records. It is an
// internal kind: chunks are managed by the index, not by manifests.
const KindChunk = "Chunk"

// Embedder turns texts into embedding vectors, one per input, in input
// order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkRecord is a persisted document chunk with its embedding.
type ChunkRecord struct {
	Document string    `json:"document"`
	Project  string    `json:"project"`
	Source   string    `json:"source,omitempty"`
	Seq      int       `json:"seq"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector"`
	EmbedAt  time.Time `json:"embedAt"`
}

// Result is one retrieval hit.
type Result struct {
	Document string  `json:"document"`
	Source   string  `json:"source,omitempty"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Index chunks, embeds and searches documents.
type Index struct {
	store    store.Store
	embedder Embedder
	logger   *zap.Logger
}

// NewIndex creates an Index over the given store and embedder.
func NewIndex(s store.Store, embedder Embedder, logger *zap.Logger) *Index {
	return &Index{store: s, embedder: embedder, logger: logger}
}

// chunkKey names one chunk record. The document name is embedded in the
// resource name so RemoveDocument can list by prefix.
func chunkKey(project, document string, seq int) string {
	return store.ResourceKey(KindChunk, project, fmt.Sprintf("%s-%04d", document, seq))
}

func documentChunkPrefix(project, document string) string {
	return store.ProjectPrefix(KindChunk, project) + document + "-"
}

// IndexDocument chunks and embeds a document, replacing any chunks from
// a previous indexing run. It returns the number of chunks written.
func (ix *Index) IndexDocument(ctx context.Context, doc *v1alpha1.Document) (int, error) {
	project := doc.Metadata.Project
	name := doc.Metadata.Name

	if err := ix.RemoveDocument(project, name); err != nil {
		return 0, fmt.Errorf("clearing stale chunks for %s: %w", name, err)
	}

	chunks := Chunk(doc.Spec.Content)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", name, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", name, len(vectors), len(chunks))
	}

	now := time.Now()
	for i, text := range chunks {
		rec := ChunkRecord{
			Document: name,
			Project:  project,
			Source:   doc.Spec.Source,
			Seq:      i,
			Text:     text,
			Vector:   vectors[i],
			EmbedAt:  now,
		}
		if err := ix.store.Create(chunkKey(project, name, i), rec); err != nil {
			return 0, fmt.Errorf("storing chunk %d of %s: %w", i, name, err)
		}
	}

	ix.logger.Info("document indexed",
		zap.String("document", name),
		zap.String("project", project),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// RemoveDocument deletes every chunk belonging to the named document.
func (ix *Index) RemoveDocument(project, document string) error {
	records, err := ix.loadChunks(documentChunkPrefix(project, document))
	if err != nil {
		return err
	}
	for _, rec := range records {
		key := chunkKey(rec.Project, rec.Document, rec.Seq)
		if err := ix.store.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Search embeds the query and returns the topK most similar chunks in
// the project, best first. Chunks with no positive similarity are
// dropped.
func (ix *Index) Search(ctx context.Context, project, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := vectors[0]

	records, err := ix.loadChunks(store.ProjectPrefix(KindChunk, project))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		score := cosine(queryVec, rec.Vector)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			Document: rec.Document,
			Source:   rec.Source,
			Text:     rec.Text,
			Score:    score,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (ix *Index) loadChunks(prefix string) ([]ChunkRecord, error) {
	raw, err := ix.store.List(prefix, func() interface{} { return &ChunkRecord{} })
	if err != nil {
		return nil, err
	}
	records := make([]ChunkRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, *r.(*ChunkRecord))
	}
	return records, nil
}

// cosine computes cosine similarity between two vectors. Mismatched
// lengths and zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
