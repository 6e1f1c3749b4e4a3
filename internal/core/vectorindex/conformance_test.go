package vectorindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runConformance exercises the Index contract. Every backend must pass the
// same suite so the in-memory fallback and pgvector rank identically.
func runConformance(t *testing.T, newIndex func(t *testing.T) Index) {
	ctx := context.Background()

	entry := func(id, docID, ownerID string, vec []float32) Chunk {
		return Chunk{
			ID:     id,
			Vector: vec,
			Text:   "text for " + id,
			Metadata: map[string]string{
				MetaParentDocID: docID,
				MetaOwnerID:     ownerID,
				MetaChunkIndex:  "0",
			},
		}
	}

	t.Run("upsert is idempotent", func(t *testing.T) {
		idx := newIndex(t)
		chunks := []Chunk{
			entry("doc1_chunk_0", "doc1", "alice", []float32{1, 0}),
			entry("doc1_chunk_1", "doc1", "alice", []float32{0, 1}),
		}
		require.NoError(t, idx.UpsertChunks(ctx, chunks))
		first, err := idx.Stats(ctx)
		require.NoError(t, err)

		require.NoError(t, idx.UpsertChunks(ctx, chunks))
		second, err := idx.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.Count, second.Count)
		assert.Equal(t, 2, second.Count)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.UpsertChunks(ctx, []Chunk{entry("c0", "d1", "alice", []float32{1, 0})}))

		replaced := entry("c0", "d1", "alice", []float32{0, 1})
		replaced.Text = "replaced"
		require.NoError(t, idx.UpsertChunks(ctx, []Chunk{replaced}))

		res, err := idx.Search(ctx, []float32{0, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "replaced", res[0].Text)
	})

	t.Run("ranking follows cosine similarity", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.UpsertChunks(ctx, []Chunk{
			entry("a", "d1", "alice", []float32{1, 0}),
			entry("b", "d1", "alice", []float32{0, 1}),
			entry("c", "d1", "alice", []float32{1, 0}),
		}))

		res, err := idx.Search(ctx, []float32{1, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, res, 2)

		// The two [1,0]-identical vectors rank above the orthogonal one,
		// ties broken by id.
		assert.Equal(t, "a", res[0].ID)
		assert.Equal(t, "c", res[1].ID)
		assert.InDelta(t, 1.0, res[0].Score, 1e-6)
		assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

		all, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "b", all[2].ID)
		assert.Greater(t, all[1].Score, all[2].Score)
	})

	t.Run("metadata filter is equality on every predicate", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.UpsertChunks(ctx, []Chunk{
			entry("a0", "d1", "alice", []float32{1, 0}),
			entry("b0", "d2", "bob", []float32{1, 0}),
		}))

		res, err := idx.Search(ctx, []float32{1, 0}, 10, map[string]string{MetaOwnerID: "alice"})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "a0", res[0].ID)
		assert.Equal(t, "alice", res[0].Metadata[MetaOwnerID])

		res, err = idx.Search(ctx, []float32{1, 0}, 10, map[string]string{MetaOwnerID: "carol"})
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("zero-norm vectors score zero", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.UpsertChunks(ctx, []Chunk{
			entry("z", "d1", "alice", []float32{0, 0}),
		}))
		res, err := idx.Search(ctx, []float32{1, 0}, 1, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.InDelta(t, 0.0, res[0].Score, 1e-6)
	})

	t.Run("delete cascade removes exactly the parent's chunks", func(t *testing.T) {
		idx := newIndex(t)
		var chunks []Chunk
		for i := 0; i < 3; i++ {
			chunks = append(chunks, entry(fmt.Sprintf("d1_chunk_%d", i), "d1", "alice", []float32{1, 0}))
		}
		chunks = append(chunks, entry("d2_chunk_0", "d2", "alice", []float32{1, 0}))
		require.NoError(t, idx.UpsertChunks(ctx, chunks))

		before, err := idx.Stats(ctx)
		require.NoError(t, err)

		require.NoError(t, idx.DeleteByParent(ctx, "d1"))

		after, err := idx.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.Count-3, after.Count)

		res, err := idx.Search(ctx, []float32{1, 0}, 10, nil)
		require.NoError(t, err)
		for _, r := range res {
			assert.NotEqual(t, "d1", r.Metadata[MetaParentDocID])
		}

		// Deleting an unknown parent is a no-op, not an error.
		require.NoError(t, idx.DeleteByParent(ctx, "never-existed"))
	})

	t.Run("search honors k", func(t *testing.T) {
		idx := newIndex(t)
		var chunks []Chunk
		for i := 0; i < 5; i++ {
			chunks = append(chunks, entry(fmt.Sprintf("k_chunk_%d", i), "d1", "alice", []float32{1, float32(i)}))
		}
		require.NoError(t, idx.UpsertChunks(ctx, chunks))

		res, err := idx.Search(ctx, []float32{1, 0}, 2, nil)
		require.NoError(t, err)
		assert.Len(t, res, 2)
	})
}
