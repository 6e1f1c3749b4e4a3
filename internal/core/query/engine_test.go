package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/intellidoc/internal/core"
	db "github.com/markdave123-py/intellidoc/internal/core/database"
	"github.com/markdave123-py/intellidoc/internal/core/nlp"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
	"github.com/markdave123-py/intellidoc/internal/models"
)

type stubEmbedder struct{ fail bool }

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func seedDocument(t *testing.T, store *db.MemoryStore, ownerID, content string) *models.Document {
	t.Helper()
	now := time.Now()
	doc := &models.Document{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		FileName:         "seed.txt",
		OriginalFileName: "seed.txt",
		MimeType:         "text/plain",
		Status:           models.StatusProcessed,
		CreatedAt:        now,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	require.NoError(t, store.UpdateDocumentProcessed(context.Background(), doc.ID, &models.DocumentUpdate{
		Content:     content,
		Status:      models.StatusProcessed,
		ProcessedAt: now,
	}))
	return doc
}

func TestAskAnswersFromContent(t *testing.T) {
	store := db.NewMemoryStore()
	doc := seedDocument(t, store, "alice", "The office is in Berlin. It opened in 2019.")
	e := NewEngine(store, &stubEmbedder{}, nlp.NewHeuristic(), vectorindex.NewMemoryIndex())

	ans, err := e.Ask(context.Background(), doc.ID, "alice", "where is the office")
	require.NoError(t, err)
	assert.Contains(t, ans.Answer, "Berlin")
	assert.GreaterOrEqual(t, ans.Confidence, 0.0)
	assert.LessOrEqual(t, ans.Confidence, 1.0)
}

func TestAskUnknownDocument(t *testing.T) {
	e := NewEngine(db.NewMemoryStore(), &stubEmbedder{}, nlp.NewHeuristic(), vectorindex.NewMemoryIndex())
	_, err := e.Ask(context.Background(), uuid.NewString(), "alice", "anything")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAskEnforcesOwnership(t *testing.T) {
	store := db.NewMemoryStore()
	doc := seedDocument(t, store, "alice", "Private content.")
	e := NewEngine(store, &stubEmbedder{}, nlp.NewHeuristic(), vectorindex.NewMemoryIndex())

	_, err := e.Ask(context.Background(), doc.ID, "bob", "what is this")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAskUnprocessedDocument(t *testing.T) {
	store := db.NewMemoryStore()
	doc := &models.Document{
		ID:      uuid.NewString(),
		OwnerID: "alice",
		Status:  models.StatusUploaded,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	e := NewEngine(store, &stubEmbedder{}, nlp.NewHeuristic(), vectorindex.NewMemoryIndex())

	_, err := e.Ask(context.Background(), doc.ID, "alice", "what is this")
	assert.ErrorIs(t, err, core.ErrNotProcessed)
}

func TestSearchFiltersByOwnerAndPreservesRanking(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.UpsertChunks(ctx, []vectorindex.Chunk{
		{ID: "a0", Vector: []float32{1, 0}, Text: "close match", Metadata: map[string]string{
			vectorindex.MetaOwnerID: "alice", vectorindex.MetaParentDocID: "d1",
		}},
		{ID: "a1", Vector: []float32{0, 1}, Text: "far match", Metadata: map[string]string{
			vectorindex.MetaOwnerID: "alice", vectorindex.MetaParentDocID: "d1",
		}},
		{ID: "b0", Vector: []float32{1, 0}, Text: "someone else's", Metadata: map[string]string{
			vectorindex.MetaOwnerID: "bob", vectorindex.MetaParentDocID: "d2",
		}},
	}))
	e := NewEngine(db.NewMemoryStore(), &stubEmbedder{}, nlp.NewHeuristic(), idx)

	res, err := e.Search(ctx, "alice", "query", 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a0", res[0].ID)
	assert.Equal(t, "a1", res[1].ID)
	for _, r := range res {
		assert.Equal(t, "alice", r.Metadata[vectorindex.MetaOwnerID])
	}
}

func TestSearchFailsWithoutEmbeddings(t *testing.T) {
	e := NewEngine(db.NewMemoryStore(), &stubEmbedder{fail: true}, nlp.NewHeuristic(), vectorindex.NewMemoryIndex())
	_, err := e.Search(context.Background(), "alice", "query", 5)
	require.Error(t, err)
}
