// Package vectorindex stores document chunks as (id, vector, text, metadata)
// entries and serves cosine-similarity search with metadata equality filters.
// Two backends implement the same contract: a durable pgvector-backed index
// and an in-memory linear scan. Both rank identically.
package vectorindex

import (
	"context"
	"math"
)

// Metadata keys every chunk entry carries.
const (
	MetaParentDocID = "parent_doc_id"
	MetaOwnerID     = "owner_id"
	MetaFileName    = "filename"
	MetaCategory    = "category"
	MetaChunkIndex  = "chunk_index"
)

// Chunk is the persisted unit of the index.
type Chunk struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Result is one search hit. Score is cosine similarity (higher is better);
// Distance is 1 - Score, kept for clients used to distance ordering.
type Result struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Distance float64           `json:"distance"`
	Metadata map[string]string `json:"metadata"`
}

// Stats is the observability snapshot of an index.
type Stats struct {
	Count   int    `json:"total_chunks"`
	Backend string `json:"backend"`
}

// Index is the similarity-searchable chunk store.
//
// UpsertChunks is idempotent: re-adding an id replaces the previous entry,
// and the chunk is searchable as soon as the call returns. Search returns at
// most k entries matching every filter predicate, ranked by descending cosine
// similarity with ties broken by id. DeleteByParent removes all chunks whose
// parent_doc_id matches and is a no-op for unknown ids.
type Index interface {
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, queryVector []float32, k int, filter map[string]string) ([]Result, error)
	DeleteByParent(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (Stats, error)
}

// cosine returns the cosine similarity of a and b. Zero-norm or
// mismatched-length vectors score 0 rather than dividing by zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
