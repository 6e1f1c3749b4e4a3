package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexConformance(t *testing.T) {
	runConformance(t, func(t *testing.T) Index {
		return NewMemoryIndex()
	})
}

func TestMemoryIndexStatsBackendName(t *testing.T) {
	s, err := NewMemoryIndex().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Backend)
	assert.Zero(t, s.Count)
}

func TestMemoryIndexCopiesInput(t *testing.T) {
	idx := NewMemoryIndex()
	vec := []float32{1, 0}
	meta := map[string]string{MetaParentDocID: "d1"}
	require.NoError(t, idx.UpsertChunks(context.Background(), []Chunk{{ID: "c", Vector: vec, Text: "t", Metadata: meta}}))

	// Mutating the caller's slices after the upsert must not affect the index.
	vec[0] = 0
	meta[MetaParentDocID] = "d2"

	res, err := idx.Search(context.Background(), []float32{1, 0}, 1, map[string]string{MetaParentDocID: "d1"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestMemoryIndexCopiesSearchResults(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.UpsertChunks(context.Background(), []Chunk{
		{ID: "c", Vector: []float32{1, 0}, Text: "t", Metadata: map[string]string{MetaParentDocID: "d1"}},
	}))

	res, err := idx.Search(context.Background(), []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)

	// Mutating a result's metadata must not corrupt the stored entry.
	res[0].Metadata[MetaParentDocID] = "d2"

	again, err := idx.Search(context.Background(), []float32{1, 0}, 1, map[string]string{MetaParentDocID: "d1"})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "d1", again[0].Metadata[MetaParentDocID])
}
